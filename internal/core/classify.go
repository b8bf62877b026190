package core

import (
	"strings"
)

// Classifier derives system_category for pending rows.
type Classifier struct {
	rules ClassifyRules
}

// NewClassifier returns a classifier for the given rules.
func NewClassifier(rules ClassifyRules) *Classifier {
	return &Classifier{rules: rules}
}

// unusable source values that mean "no category" in spreadsheet exports.
var emptyCategoryText = map[string]bool{"": true, "NONE": true, "NAN": true, "NULL": true}

// Classify returns the system category of a row. The second result is false
// when the row must be discarded. Rules are evaluated in a fixed order and
// the first match wins:
//
//  1. category text starts with the alarm prefix (or the name carries an alarm marker)
//  2. name starts with a command prefix
//  3. name starts with a configuration prefix
//  4. name starts with a set-point prefix, then name substring overrides
//  5. category/section dictionary lookup
//  6. access-pattern truth table
func (c *Classifier) Classify(r *Row) (SystemCategory, bool) {
	name := strings.ToUpper(r.Get(FieldName))
	category := strings.ToUpper(r.Get(FieldCategory))
	source := ""
	if c.rules.SourceField != "" {
		source = strings.ToUpper(strings.TrimSpace(r.Get(c.rules.SourceField)))
	}

	for _, d := range c.rules.Drop {
		if source != "" && source == strings.ToUpper(d) {
			return "", false
		}
	}

	if p := c.rules.AlarmCategoryPrefix; p != "" && strings.HasPrefix(category, strings.ToUpper(p)) {
		return CategoryAlarm, true
	}
	for _, marker := range c.rules.AlarmNameMarkers {
		if strings.Contains(r.Get(FieldName), marker) {
			return CategoryAlarm, true
		}
	}

	switch {
	case HasAnyPrefix(name, c.rules.CommandPrefixes):
		return CategoryCommand, true
	case HasAnyPrefix(name, c.rules.ConfigPrefixes):
		return CategoryConfigParameter, true
	case HasAnyPrefix(name, c.rules.SetPointPrefixes):
		return CategorySetPoint, true
	}
	for _, m := range c.rules.NameContains {
		if m.matches(name) {
			return m.Category, true
		}
	}

	if !emptyCategoryText[source] {
		for _, m := range c.rules.CategoryMap {
			if m.matches(source) {
				return m.Category, true
			}
		}
		if cat, ok := ParseSystemCategory(source); ok {
			return cat, true
		}
	}

	if len(c.rules.AccessTable) > 0 {
		return c.byAccess(r), true
	}

	if c.rules.Fallback == "" {
		return "", false
	}
	return c.rules.Fallback, true
}

// byAccess evaluates the access-pattern truth table.
func (c *Classifier) byAccess(r *Row) SystemCategory {
	access := rowAccess(r)
	dataType := strings.ToUpper(strings.TrimSpace(r.Get(FieldDataType)))
	for _, ac := range c.rules.AccessTable {
		if len(ac.Types) > 0 && !containsFold(ac.Types, dataType) {
			continue
		}
		if !ac.Access.Matches(access) {
			continue
		}
		return ac.Category
	}
	if c.rules.AccessDefault != "" {
		return c.rules.AccessDefault
	}
	return CategoryStatus
}

// Apply classifies every row, upper-casing category text and discarding rows
// that resolve to no category.
func (c *Classifier) Apply(rows []*Row) []*Row {
	out := make([]*Row, 0, len(rows))
	for _, r := range rows {
		if r.Has(FieldCategory) {
			r.Set(FieldCategory, strings.ToUpper(r.Get(FieldCategory)))
		}
		cat, ok := c.Classify(r)
		if !ok {
			continue
		}
		r.Set(FieldSystemCategory, string(cat))
		out = append(out, r)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
