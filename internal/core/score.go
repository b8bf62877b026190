package core

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ScoreSampleSize caps the number of cells inspected per column.
const ScoreSampleSize = 200

// ColumnRule describes what the content of a canonical column looks like.
type ColumnRule struct {
	Field     string   `yaml:"field"`
	Types     []string `yaml:"types"`    // any of "int", "float", "str"
	Patterns  []string `yaml:"patterns"` // regexes anchored at the start of the cell
	MinLength float64  `yaml:"min_length"`
	MaxLength float64  `yaml:"max_length"`

	patterns []*regexp.Regexp
}

// ScoringRules is an ordered rule set: earlier rules win ties.
type ScoringRules struct {
	Priority []string     `yaml:"priority"`
	Rules    []ColumnRule `yaml:"rules"`
}

// Compile prepares the regexes and orders the rules by priority.
func (s *ScoringRules) Compile() error {
	for i := range s.Rules {
		r := &s.Rules[i]
		r.patterns = r.patterns[:0]
		for _, p := range r.Patterns {
			if !strings.HasPrefix(p, "^") {
				p = "^" + p
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("rule %s: pattern %q: %w", r.Field, p, err)
			}
			r.patterns = append(r.patterns, re)
		}
	}

	rank := make(map[string]int, len(s.Priority))
	for i, f := range s.Priority {
		rank[f] = i
	}
	ordered := make([]ColumnRule, 0, len(s.Rules))
	for _, f := range s.Priority {
		for _, r := range s.Rules {
			if r.Field == f {
				ordered = append(ordered, r)
			}
		}
	}
	for _, r := range s.Rules {
		if _, ok := rank[r.Field]; !ok {
			ordered = append(ordered, r)
		}
	}
	s.Rules = ordered
	return nil
}

func (r ColumnRule) hasType(t string) bool {
	for _, v := range r.Types {
		if v == t {
			return true
		}
	}
	return false
}

// ScoreColumn rates how well a column's cells fit a rule. The score adds a
// type fit (numeric share x2, text share x1), the best pattern match share x3
// and up to 0.6 for average length within bounds.
func ScoreColumn(cells []string, rule ColumnRule) float64 {
	sample := make([]string, 0, ScoreSampleSize)
	for _, c := range cells {
		if IsBlank(c) {
			continue
		}
		sample = append(sample, CleanCell(c))
		if len(sample) == ScoreSampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return 0
	}
	n := float64(len(sample))

	numeric := 0
	negative := 0
	totalLen := 0
	for _, c := range sample {
		if _, err := strconv.ParseFloat(strings.Replace(c, ",", ".", 1), 64); err == nil {
			numeric++
		}
		if strings.HasPrefix(c, "-") {
			negative++
		}
		totalLen += utf8.RuneCountInString(c)
	}

	score := 0.0
	if rule.hasType("int") || rule.hasType("float") {
		score += 2.0 * float64(numeric) / n
	}
	if rule.hasType("str") {
		score += 1.0 * float64(len(sample)-numeric) / n
	}

	pattern := 0.0
	for _, re := range rule.patterns {
		hits := 0
		for _, c := range sample {
			if re.MatchString(c) {
				hits++
			}
		}
		pattern = max(pattern, float64(hits)/n)
	}
	if rule.Field == FieldMaxValue {
		pattern -= 0.5 * float64(negative) / n
	}
	score += 3.0 * pattern

	avg := float64(totalLen) / n
	if rule.MinLength > 0 && avg >= rule.MinLength {
		score += 0.3
	}
	if rule.MaxLength > 0 && avg <= rule.MaxLength {
		score += 0.3
	}
	return score
}

// AssignColumns maps column indexes to canonical fields by content. A first
// pass accepts scores at or above HighScoreThreshold, each field at most once.
// A second pass accepts LowScoreThreshold and suffixes fields already taken.
// Anything left becomes description_N. Fields in taken are treated as claimed.
func (s *ScoringRules) AssignColumns(columns map[int][]string, taken map[string]bool) map[int]string {
	mapping := make(map[int]string, len(columns))
	if taken == nil {
		taken = make(map[string]bool)
	}

	order := make([]int, 0, len(columns))
	for i := range columns {
		order = append(order, i)
	}
	sort.Ints(order)

	best := func(col []string, skipTaken bool) (string, float64) {
		field, top := "", 0.0
		for _, r := range s.Rules {
			if skipTaken && taken[r.Field] {
				continue
			}
			if sc := ScoreColumn(col, r); sc > top {
				field, top = r.Field, sc
			}
		}
		return field, top
	}

	for _, i := range order {
		if field, sc := best(columns[i], true); field != "" && sc >= HighScoreThreshold {
			mapping[i] = field
			taken[field] = true
		}
	}

	for _, i := range order {
		if _, ok := mapping[i]; ok {
			continue
		}
		field, sc := best(columns[i], false)
		switch {
		case field == "" || sc < LowScoreThreshold:
			mapping[i] = nextFree(FieldDescription, taken)
		case taken[field]:
			mapping[i] = nextFree(field, taken)
		default:
			mapping[i] = field
		}
		taken[mapping[i]] = true
	}
	return mapping
}

func nextFree(field string, taken map[string]bool) string {
	for i := 1; ; i++ {
		name := field + "_" + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}
