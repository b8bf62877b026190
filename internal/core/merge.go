package core

import (
	"log/slog"
	"strings"
)

// Merger applies the cross-row passes of a backend. Every pass walks the
// rows top to bottom and may read the already-mutated previous row.
type Merger struct {
	rules MergeRules
}

// NewMerger returns a merger for the given rules.
func NewMerger(rules MergeRules) *Merger {
	return &Merger{rules: rules}
}

// Apply runs continuation merging, then label propagation.
func (m *Merger) Apply(rows []*Row) []*Row {
	if m.rules.Continuation {
		rows = MergeContinuations(rows, m.rules.ContentField, m.rules.SecondaryFields)
	}
	if m.rules.Labels {
		rows = m.PropagateLabels(rows)
	}
	return rows
}

// MergeContinuations folds rows that only carry secondary fields (a wrapped
// scope, state or unit cell) into the row above them. Rows without content
// are dropped afterwards, whether merged or not.
func MergeContinuations(rows []*Row, content string, secondary []string) []*Row {
	if content == "" {
		content = FieldDescription
	}
	for i := 1; i < len(rows); i++ {
		cur, prev := rows[i], rows[i-1]
		if cur.Has(content) || !prev.Has(content) {
			continue
		}
		merged := false
		for _, f := range secondary {
			if cur.Has(f) {
				prev.Set(f, cur.Get(f))
				merged = true
			}
		}
		if !merged {
			continue
		}
		SplitScope(prev)
		if prev.Has(FieldState) {
			prev.Set(FieldAccess, NormalizeAccess(prev.Get(FieldState)))
		}
	}

	out := rows[:0:0]
	for _, r := range rows {
		if r.Has(content) {
			out = append(out, r)
		}
	}
	return out
}

// PropagateLabels carries group labels down onto the rows beneath them and
// removes the label rows. Three kinds of label are recognized, in order:
// access-mode keywords in the register column, the first occurrence of a
// register that repeats later, and rows with a blank register.
func (m *Merger) PropagateLabels(rows []*Row) []*Row {
	if len(m.rules.ModeKeywords) > 0 {
		rows = m.applyModes(rows)
	}
	if m.rules.DuplicateRegisterLabels {
		rows = m.propagateDuplicates(rows)
	} else {
		initial := m.initialCategory()
		for _, r := range rows {
			if !r.Has(FieldCategory) {
				r.Set(FieldCategory, initial)
			}
		}
	}
	if m.rules.BlankRegisterLabels {
		rows = m.propagateBlanks(rows)
	}
	return rows
}

func (m *Merger) initialCategory() string {
	if m.rules.InitialCategory != "" {
		return m.rules.InitialCategory
	}
	return string(CategoryDefault)
}

func (m *Merger) modeOf(reg string) (string, bool) {
	upper := strings.ToUpper(reg)
	for _, mk := range m.rules.ModeKeywords {
		if strings.Contains(upper, strings.ToUpper(mk.Keyword)) {
			return mk.Access, true
		}
	}
	return "", false
}

func isTextRegister(reg string) bool {
	return reg != "" && !IsNumericRegister(reg)
}

// applyModes handles documents that switch between read and write sections
// with a keyword row ("LECTURA", "ESCRITURA"). Keyword rows are dropped, as
// is a text row directly following any text row (a sub-heading).
func (m *Merger) applyModes(rows []*Row) []*Row {
	drop := make([]bool, len(rows))
	mode := ""
	for i, r := range rows {
		reg := r.Get(FieldRegister)
		if isTextRegister(reg) {
			if lit, ok := m.modeOf(reg); ok {
				mode = lit
				drop[i] = true
				slog.Debug("access mode switch", "mode", lit, "source", r.Source.String())
			}
			if i+1 < len(rows) && isTextRegister(rows[i+1].Get(FieldRegister)) {
				drop[i+1] = true
			}
			continue
		}
		if mode != "" && !r.Has(FieldAccess) {
			r.Set(FieldAccess, mode)
		}
	}
	return keepRows(rows, drop, nil)
}

// propagateDuplicates treats a repeated register as the start of a new
// group. The first occurrence was the group heading: its name becomes the
// category from the repeat onwards and the heading row is dropped.
func (m *Merger) propagateDuplicates(rows []*Row) []*Row {
	current := m.initialCategory()
	first := make(map[string]int)
	drop := make([]bool, len(rows))

	for i, r := range rows {
		reg := r.Get(FieldRegister)
		if reg != "" {
			if j, seen := first[reg]; seen {
				current = labelName(rows[j].Get(FieldName))
				if current == "" {
					current = m.initialCategory()
				}
				drop[j] = true
			} else {
				first[reg] = i
			}
		}
		r.Set(FieldCategory, current)
	}
	return keepRows(rows, drop, m.rules.KeepLabelPrefixes)
}

// propagateBlanks treats a row with a blank register as a section heading
// whose name labels every row below it until the next heading.
func (m *Merger) propagateBlanks(rows []*Row) []*Row {
	current := ""
	drop := make([]bool, len(rows))
	for i, r := range rows {
		if !r.Has(FieldRegister) {
			drop[i] = true
			if name := labelName(r.Get(FieldName)); name != "" {
				current = name
				r.Set(FieldCategory, current)
			}
			continue
		}
		if current != "" {
			r.Set(FieldCategory, current)
		}
	}
	return keepRows(rows, drop, m.rules.KeepLabelPrefixes)
}

// labelName turns a heading into a category token.
func labelName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

func keepRows(rows []*Row, drop []bool, keepPrefixes []string) []*Row {
	out := make([]*Row, 0, len(rows))
	dropped := 0
	for i, r := range rows {
		if drop[i] && !HasAnyPrefix(strings.ToUpper(r.Get(FieldName)), keepPrefixes) {
			dropped++
			continue
		}
		out = append(out, r)
	}
	if dropped > 0 {
		slog.Debug("label rows removed", "count", dropped)
	}
	return out
}
