package core

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when no row of a grid qualifies as a header.
var ErrNoHeader = errors.New("no header row found")

// HeaderMatch is a detected header row and its canonical column map.
type HeaderMatch struct {
	Row     int
	Columns map[int]string // column index -> canonical field
	Matches int
}

// Field returns the canonical field for a column, or "".
func (h HeaderMatch) Field(col int) string {
	return h.Columns[col]
}

// HeaderDetector finds header rows in raw grids using a backend's rules.
type HeaderDetector struct {
	rules    HeaderRules
	variants [][]string // normalized variants, parallel to rules.Aliases
}

// NewHeaderDetector normalizes the alias variants once.
func NewHeaderDetector(rules HeaderRules) *HeaderDetector {
	d := &HeaderDetector{rules: rules, variants: make([][]string, len(rules.Aliases))}
	for i, a := range rules.Aliases {
		for _, v := range a.Variants {
			if nv := NormalizeHeader(v); nv != "" {
				d.variants[i] = append(d.variants[i], nv)
			}
		}
	}
	return d
}

// MatchCell returns the canonical field a header cell maps to.
func (d *HeaderDetector) MatchCell(cell string) (string, bool) {
	norm := NormalizeHeader(cell)
	if norm == "" {
		return "", false
	}
	for i, a := range d.rules.Aliases {
		for _, v := range d.variants[i] {
			if d.rules.Match == MatchExact && norm == v {
				return a.Field, true
			}
			if d.rules.Match == MatchSubstring && strings.Contains(norm, v) {
				return a.Field, true
			}
		}
	}
	return "", false
}

// CountMatches counts the cells of a row that match any variant.
func (d *HeaderDetector) CountMatches(row []string) int {
	n := 0
	for _, cell := range row {
		if _, ok := d.MatchCell(cell); ok {
			n++
		}
	}
	return n
}

// IsHeader reports whether a row reaches the keyword threshold.
func (d *HeaderDetector) IsHeader(row []string) bool {
	return d.CountMatches(row) >= d.rules.minMatches()
}

// MapColumns builds the canonical column map of a header row. The first
// column claiming a field keeps it; later duplicates are treated as unmapped.
func (d *HeaderDetector) MapColumns(header []string) map[int]string {
	cols := make(map[int]string, len(header))
	used := make(map[string]bool)
	extra := 0
	for i, cell := range header {
		field, ok := d.MatchCell(cell)
		if ok && !used[field] {
			cols[i] = field
			used[field] = true
			continue
		}
		if d.rules.Unmapped == KeepAsDescription && !IsBlank(cell) {
			extra++
			cols[i] = FieldDescription + "_" + strconv.Itoa(extra)
		}
	}
	return cols
}

// Detect returns the first header of a grid.
func (d *HeaderDetector) Detect(grid [][]string) (HeaderMatch, error) {
	switch d.rules.Mode {
	case HeaderFixed:
		return d.detectFixed(grid)
	case HeaderScored:
		return d.detectScored(grid)
	}

	limit := d.rules.searchRows(len(grid))
	for i := 0; i < limit; i++ {
		if n := d.CountMatches(grid[i]); n >= d.rules.minMatches() {
			return HeaderMatch{Row: i, Columns: d.MapColumns(grid[i]), Matches: n}, nil
		}
	}
	return HeaderMatch{}, ErrNoHeader
}

// FindAll returns every header occurrence of a grid. Keyword backends may
// stack several tables in one sheet; the first header must sit inside the
// search window, later ones anywhere below it.
func (d *HeaderDetector) FindAll(grid [][]string) ([]HeaderMatch, error) {
	first, err := d.Detect(grid)
	if err != nil {
		return nil, err
	}
	if d.rules.Mode != HeaderKeywords {
		return []HeaderMatch{first}, nil
	}

	out := []HeaderMatch{first}
	for i := first.Row + 1; i < len(grid); i++ {
		if n := d.CountMatches(grid[i]); n >= d.rules.minMatches() {
			out = append(out, HeaderMatch{Row: i, Columns: d.MapColumns(grid[i]), Matches: n})
		}
	}
	return out, nil
}

func (d *HeaderDetector) detectFixed(grid [][]string) (HeaderMatch, error) {
	i := d.rules.FixedRow
	if i < 0 || i >= len(grid) {
		return HeaderMatch{}, ErrNoHeader
	}
	cols := d.MapColumns(grid[i])
	n := d.CountMatches(grid[i])
	if n == 0 {
		return HeaderMatch{}, ErrNoHeader
	}
	return HeaderMatch{Row: i, Columns: cols, Matches: n}, nil
}

// detectScored picks the row with the most keyword hits (row 0 when none
// hit), maps what the aliases recognize and scores the remaining columns
// by their content.
func (d *HeaderDetector) detectScored(grid [][]string) (HeaderMatch, error) {
	if len(grid) == 0 {
		return HeaderMatch{}, ErrNoHeader
	}

	bestRow, bestHits := 0, 0
	limit := d.rules.searchRows(len(grid))
	for i := 0; i < limit; i++ {
		if n := d.CountMatches(grid[i]); n > bestHits {
			bestRow, bestHits = i, n
		}
	}

	header := grid[bestRow]
	cols := make(map[int]string)
	taken := make(map[string]bool)
	for i, cell := range header {
		if field, ok := d.MatchCell(cell); ok && !taken[field] {
			cols[i] = field
			taken[field] = true
		}
	}

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	pending := make(map[int][]string)
	for c := 0; c < width; c++ {
		if _, ok := cols[c]; ok {
			continue
		}
		var cells []string
		for _, row := range grid[bestRow+1:] {
			if isEmptyRow(row) {
				break
			}
			if c < len(row) {
				cells = append(cells, row[c])
			}
		}
		if len(cells) > 0 {
			pending[c] = cells
		}
	}

	if d.rules.Scoring != nil {
		for c, field := range d.rules.Scoring.AssignColumns(pending, taken) {
			cols[c] = field
		}
	}
	if len(cols) == 0 {
		return HeaderMatch{}, ErrNoHeader
	}
	return HeaderMatch{Row: bestRow, Columns: cols, Matches: bestHits}, nil
}
