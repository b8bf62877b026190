package core

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// scopeAccessRegex matches read/write literals stored in a scope column.
	scopeAccessRegex = regexp.MustCompile(`(?i)^\s*(r/?w?|w)\s*$`)
	// scopeRangeRegex matches "min~max" and "min-max" ranges.
	scopeRangeRegex = regexp.MustCompile(`^\s*(\d+)\s*[~-]\s*(\d+)\s*$`)
	// dimensionRegex matches array dimensions like "[1...23]" or "1-23".
	dimensionRegex = regexp.MustCompile(`\[?\s*(-?\d+)\s*(?:\.{2,}|-|–)\s*(-?\d+)\s*\]?`)
)

// Extractor turns the data block under a header into pending rows.
type Extractor struct {
	rules    ExtractRules
	detector *HeaderDetector
	numeric  map[string]bool
}

// NewExtractor builds an extractor. The detector is consulted when a block
// may be terminated by a repeated header.
func NewExtractor(rules ExtractRules, detector *HeaderDetector) *Extractor {
	e := &Extractor{rules: rules, detector: detector, numeric: make(map[string]bool)}
	for _, f := range rules.NumericFields {
		e.numeric[f] = true
	}
	return e
}

// Extract returns the rows of the block that starts below header h. The
// block ends at the first all-blank row, or at a repeated header when the
// backend stacks tables.
func (e *Extractor) Extract(table RawTable, h HeaderMatch) []*Row {
	var out []*Row
	start := h.Row + 1 + e.rules.SkipAfterHeader

	for i := start; i < len(table.Rows); i++ {
		cells := table.Rows[i]
		if isEmptyRow(cells) {
			break
		}
		if e.detector != nil && e.detector.IsHeader(cells) {
			if e.rules.StopAtHeader {
				break
			}
			continue
		}
		if e.isMetaRow(cells) {
			continue
		}

		src := table.Source
		src.Row = i + 1
		row := NewRow(src)
		for c, field := range h.Columns {
			if c >= len(cells) {
				continue
			}
			v := CleanCell(cells[c])
			if IsBlank(v) {
				continue
			}
			row.Set(field, v)
		}

		e.normalize(row)
		if e.rules.DropNonNumericRegister && !IsNumericRegister(row.Get(FieldRegister)) {
			continue
		}
		if e.rules.ExpandDimensions {
			out = append(out, ExpandDimension(row)...)
			continue
		}
		out = append(out, row)
	}
	return out
}

// isMetaRow spots page furniture ("page 3", "continued", "cont.") that
// survives inside a data block.
func (e *Extractor) isMetaRow(cells []string) bool {
	if len(e.rules.MetaWords) == 0 {
		return false
	}
	filled, meta := 0, 0
	for _, cell := range cells {
		if IsBlank(cell) {
			continue
		}
		filled++
		norm := NormalizeHeader(cell)
		for _, w := range e.rules.MetaWords {
			if strings.Contains(norm, w) {
				meta++
				break
			}
		}
	}
	return filled > 0 && float64(meta)/float64(filled) >= MetaWordRatio
}

func (e *Extractor) normalize(row *Row) {
	if !row.Has(FieldRegister) {
		for _, f := range e.rules.RegisterFallback {
			if row.Has(f) {
				row.Set(FieldRegister, row.Get(f))
				break
			}
		}
	}
	if row.Has(FieldRegister) {
		row.Set(FieldRegister, NormalizeRegister(row.Get(FieldRegister), e.rules.HexRegisters))
	}
	if e.rules.UpperNames && row.Has(FieldName) {
		row.Set(FieldName, strings.ToUpper(row.Get(FieldName)))
	}
	if e.rules.HexValues {
		if v, ok := ParseHex(row.Get(FieldValue)); ok {
			row.Set(FieldValue, strconv.FormatInt(v, 10))
		} else {
			row.SetInt(FieldValue, 0)
		}
	}

	if e.rules.ScopeSplit {
		SplitScope(row)
	}
	if row.Has(FieldState) && !row.Has(FieldAccess) {
		row.Set(FieldAccess, row.Get(FieldState))
	}
	if row.Has(FieldAccess) {
		row.Set(FieldAccess, NormalizeAccess(row.Get(FieldAccess)))
	}

	for f := range e.numeric {
		if !row.Has(f) {
			continue
		}
		if v, ok := row.Float(f); ok {
			row.SetFloat(f, v)
		} else {
			row.Set(f, "")
		}
	}

	if row.Has(FieldDescription) {
		row.Set(FieldDescription, Truncate(row.Get(FieldDescription), e.rules.descriptionLimit()))
	}
}

// SplitScope restructures a compound scope cell. Read/write literals move to
// state and clear scope; numeric ranges fill minvalue and maxvalue.
func SplitScope(row *Row) {
	scope := row.Get(FieldScope)
	if scope == "" {
		return
	}
	if scopeAccessRegex.MatchString(scope) {
		row.Set(FieldState, strings.TrimSpace(scope))
		row.Set(FieldScope, "")
		return
	}
	if m := scopeRangeRegex.FindStringSubmatch(scope); m != nil {
		row.Set(FieldMinValue, m[1])
		row.Set(FieldMaxValue, m[2])
	}
}

// ParseDimension extracts the bounds of an array dimension cell.
func ParseDimension(s string) (lo, hi int, ok bool) {
	m := dimensionRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(m[1])
	hi, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// ExpandDimension turns an array variable into its parent row followed by
// one 1bit child per position. Children are named NAME_pos and, when the
// parent register is numeric, addressed at base+offset+1.
func ExpandDimension(row *Row) []*Row {
	lo, hi, ok := ParseDimension(row.Get(FieldDimension))
	row.Set(FieldDimension, "")
	if !ok {
		row.Set(FieldLength, "1bit")
		return []*Row{row}
	}

	n := hi - lo + 1
	row.Set(FieldLength, strconv.Itoa(n)+"bit")
	out := make([]*Row, 0, n+1)
	out = append(out, row)

	base, hasBase := 0, false
	if f, ok := row.Float(FieldRegister); ok {
		base, hasBase = int(f), true
	}
	name := row.Get(FieldName)
	for offset := 0; offset < n; offset++ {
		pos := lo + offset
		child := row.Clone()
		child.Set(FieldName, name+"_"+strconv.Itoa(pos))
		child.Set(FieldLength, "1bit")
		child.Set(FieldDescription, name+" - Posición "+strconv.Itoa(pos))
		if hasBase {
			child.SetInt(FieldRegister, base+offset+1)
		}
		out = append(out, child)
	}
	return out
}
