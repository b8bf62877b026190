package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/regmap/internal/logging"
)

var (
	// ErrNothingExtracted is returned when no table of a document yields a row.
	ErrNothingExtracted = errors.New("nothing extracted")

	// ErrStageFailed is returned when a document-wide stage (classification,
	// rules or finalization) panics. There is no table to skip at that point.
	ErrStageFailed = errors.New("normalization stage failed")
)

// Pipeline runs one backend over the raw tables of a document. It holds no
// mutable state and may be shared between goroutines.
type Pipeline struct {
	backend    Backend
	detector   *HeaderDetector
	extractor  *Extractor
	merger     *Merger
	classifier *Classifier
	rules      *RuleEngine
	finalizer  *Finalizer
}

// NewPipeline wires the stages of a backend.
func NewPipeline(b Backend) *Pipeline {
	detector := NewHeaderDetector(b.Header)
	return &Pipeline{
		backend:    b,
		detector:   detector,
		extractor:  NewExtractor(b.Extract, detector),
		merger:     NewMerger(b.Merge),
		classifier: NewClassifier(b.Classify),
		rules:      NewRuleEngine(b.Rules),
		finalizer:  NewFinalizer(b.Defaults),
	}
}

// Backend returns the bundle the pipeline was built from.
func (p *Pipeline) Backend() Backend {
	return p.backend
}

// sectionTable is a raw table with the section it belongs to.
type sectionTable struct {
	RawTable
	section string
}

// Run normalizes a document. Tables are processed in order; a table that
// fails is reported and skipped without affecting the others.
func (p *Pipeline) Run(ctx context.Context, tables []RawTable) (*Result, error) {
	logger := logging.FromContext(ctx).With("backend", p.backend.Key)
	result := &Result{Backend: p.backend.Key}

	tables = p.selectSheets(tables)
	if p.backend.ConcatTables {
		tables = concatTables(tables)
	}
	grouped := p.splitSections(tables, logger)

	var (
		rows []*Row
		last *HeaderMatch
	)
	for _, t := range grouped {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, report := p.runTable(t, &last, logger)
		if report.Skipped {
			logger.Warn("table skipped", "source", t.Source.String(), "reason", report.Reason)
		} else {
			logger.Debug("table extracted", "source", t.Source.String(), "rows", len(got))
		}
		result.Reports = append(result.Reports, report)
		rows = append(rows, got...)
	}

	records, err := p.finish(rows, logger)
	if err != nil {
		return result, err
	}
	result.Records = records

	if len(result.Records) == 0 {
		return result, ErrNothingExtracted
	}
	logger.Info("conversion finished",
		"tables", len(result.Reports),
		"skipped", result.Skipped(),
		"records", len(result.Records),
	)
	return result, nil
}

// runTable isolates the per-table stages. A panic in any of them is
// converted into a skipped report.
func (p *Pipeline) runTable(t sectionTable, last **HeaderMatch, logger *slog.Logger) (rows []*Row, report TableReport) {
	report = TableReport{Source: t.Source, HeaderRow: -1}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("table processing panicked", "source", t.Source.String(), "panic", r)
			rows = nil
			report.Skipped = true
			report.Reason = fmt.Sprintf("internal error: %v", r)
		}
	}()

	headers, err := p.headers(t.Rows)
	if errors.Is(err, ErrNoHeader) && p.backend.InheritHeader && *last != nil {
		inherited := **last
		inherited.Row = -1
		headers, err = []HeaderMatch{inherited}, nil
	}
	if err != nil {
		report.Skipped = true
		report.Reason = err.Error()
		return nil, report
	}
	*last = &headers[0]
	report.HeaderRow = headers[0].Row

	for _, h := range headers {
		rows = append(rows, p.extractor.Extract(t.RawTable, h)...)
	}
	if t.section != "" {
		for _, r := range rows {
			r.Set(FieldSection, t.section)
		}
	}
	rows = p.merger.Apply(rows)

	report.Rows = len(rows)
	if len(rows) == 0 {
		report.Skipped = true
		report.Reason = "no data rows"
	}
	return rows, report
}

// finish runs the document-wide stages over the rows of every table. A panic
// there fails the run with ErrStageFailed instead of crashing the caller.
func (p *Pipeline) finish(rows []*Row, logger *slog.Logger) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("normalization panicked", "rows", len(rows), "panic", r)
			records = nil
			err = fmt.Errorf("%w: %v", ErrStageFailed, r)
		}
	}()

	rows = p.rules.Prepare(rows)
	rows = p.classifier.Apply(rows)
	rows = p.rules.Apply(rows)
	return p.finalizer.Finalize(rows), nil
}

func (p *Pipeline) headers(grid [][]string) ([]HeaderMatch, error) {
	if p.backend.Extract.StopAtHeader {
		return p.detector.FindAll(grid)
	}
	h, err := p.detector.Detect(grid)
	if err != nil {
		return nil, err
	}
	return []HeaderMatch{h}, nil
}

// selectSheets narrows a workbook to the backend's preferred sheets: exact
// names first, then names containing a preferred word, and failing both the
// first sheets of the workbook.
func (p *Pipeline) selectSheets(tables []RawTable) []RawTable {
	pref := p.backend.PreferredSheets
	if len(pref) == 0 || len(tables) == 0 {
		return tables
	}

	pick := func(match func(sheet, want string) bool) []RawTable {
		var out []RawTable
		for _, t := range tables {
			for _, want := range pref {
				if match(strings.ToUpper(strings.TrimSpace(t.Source.Sheet)), strings.ToUpper(want)) {
					out = append(out, t)
					break
				}
			}
		}
		return out
	}

	if out := pick(func(s, w string) bool { return s == w }); len(out) > 0 {
		return out
	}
	if out := pick(strings.Contains); len(out) > 0 {
		return out
	}
	return tables[:min(len(pref), len(tables))]
}

// concatTables joins tables split over pages into one grid. Repeated header
// rows are skipped later by the extractor.
func concatTables(tables []RawTable) []RawTable {
	if len(tables) < 2 {
		return tables
	}
	joined := RawTable{Source: tables[0].Source}
	for _, t := range tables {
		joined.Rows = append(joined.Rows, t.Rows...)
	}
	return []RawTable{joined}
}

// splitSections assigns every table to the section opened by the nearest
// preceding title table. A title is a table whose first row reads as one of
// the section variants; the title row is removed. Tables seen before any
// title are dropped when the backend uses sections.
func (p *Pipeline) splitSections(tables []RawTable, logger *slog.Logger) []sectionTable {
	out := make([]sectionTable, 0, len(tables))
	if len(p.backend.Sections) == 0 {
		for _, t := range tables {
			out = append(out, sectionTable{RawTable: t})
		}
		return out
	}

	current := ""
	for _, t := range tables {
		if len(t.Rows) > 0 {
			if name, ok := p.sectionTitle(t.Rows[0]); ok {
				current = name
				t.Rows = t.Rows[1:]
				logger.Debug("section opened", "section", name, "source", t.Source.String())
			}
		}
		if current == "" {
			logger.Debug("table outside any section dropped", "source", t.Source.String())
			continue
		}
		if len(t.Rows) == 0 {
			continue
		}
		out = append(out, sectionTable{RawTable: t, section: current})
	}
	return out
}

func (p *Pipeline) sectionTitle(row []string) (string, bool) {
	var parts []string
	for _, c := range row {
		if c = CleanCell(c); !IsBlank(c) {
			parts = append(parts, c)
		}
	}
	title := NormalizeHeader(strings.Join(parts, " "))
	if title == "" {
		return "", false
	}
	for _, s := range p.backend.Sections {
		for _, v := range s.Variants {
			if title == NormalizeHeader(v) {
				return s.Field, true
			}
		}
	}
	return "", false
}
