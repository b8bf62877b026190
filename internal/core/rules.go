package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Length tags.
const (
	Length1Bit  = "1bit"
	Length16Bit = "16bit"
	LengthS16   = "s16"
	// LengthSigned16 resolves to s16 when the row's range goes negative and
	// to 16bit otherwise.
	LengthSigned16 = "16bit/s16"
)

// Default JSON cells.
const (
	DefaultAlarm    = `{"severity":"none"}`
	DefaultMetadata = "[]"
	DefaultTags     = "[]"
	SystemTags      = `["library_identifier"]`
	DefaultL10n     = `{"_type":"l10n","default_lang":"en_US","translations":{"en_US":{"name":null,"_type":"languages","description":null}}}`
)

var (
	childSuffixRegex = regexp.MustCompile(`^(.+)_(\d+)$`)
	leadingBitsRegex = regexp.MustCompile(`^\s*(\d+)`)
)

// RuleEngine applies the table-driven derivations of a backend. Prepare runs
// before classification; Apply runs the remaining passes in a fixed order.
type RuleEngine struct {
	t RuleTables
}

// NewRuleEngine returns an engine for the given tables.
func NewRuleEngine(t RuleTables) *RuleEngine {
	return &RuleEngine{t: t}
}

// Prepare drops rows with neither register nor name, fills missing names and
// resolves the base read/write pair from the access literal. The classifier's
// access truth table depends on both.
func (e *RuleEngine) Prepare(rows []*Row) []*Row {
	out := rows[:0]
	for _, r := range rows {
		if !r.Has(FieldRegister) && !r.Has(FieldName) {
			continue
		}
		if !e.t.RequireName {
			fillName(r)
		}
		if !r.Has(FieldName) {
			continue
		}
		if a, ok := e.baseAccess(r.Get(FieldAccess)); ok {
			setRowAccess(r, a)
		}
		out = append(out, r)
	}
	return out
}

func (e *RuleEngine) baseAccess(literal string) (Access, bool) {
	if literal == "" || e.t.Access == nil {
		return Access{}, false
	}
	a, ok := e.t.Access[NormalizeAccess(literal)]
	return a, ok
}

func fillName(r *Row) {
	if r.Has(FieldName) {
		return
	}
	if r.Has(FieldDescription) {
		r.Set(FieldName, Truncate(NormalizeName(r.Get(FieldDescription)), DescriptionLimit))
		return
	}
	if r.Has(FieldRegister) {
		r.Set(FieldName, "REG_"+r.Get(FieldRegister))
	}
}

// Apply runs the post-classification passes over classified rows.
func (e *RuleEngine) Apply(rows []*Row) []*Row {
	for _, r := range rows {
		cat := r.Category()
		e.applySampling(r, cat)
		e.applyView(r, cat)
		e.applyPermissions(r, cat)
		e.applyRange(r, cat)
		e.applyLength(r, cat)
		e.clampValues(r)
		e.applyUnit(r, cat)
		if e.t.SetPointOffset != 0 && cat == CategorySetPoint && !r.Has(FieldOffset) {
			r.SetFloat(FieldOffset, e.t.SetPointOffset)
		}
	}
	if e.t.Masks {
		AssignMasks(rows)
	}
	DisambiguateNames(rows)
	for _, r := range rows {
		if r.Category() == CategorySystem {
			r.Set(FieldTags, SystemTags)
		} else {
			r.Set(FieldTags, DefaultTags)
		}
		if e.t.L10n.DefaultLang != "" {
			r.Set(FieldL10n, BuildL10n(r, e.t.L10n))
		}
	}
	return rows
}

func (e *RuleEngine) applySampling(r *Row, cat SystemCategory) {
	if e.t.Sampling == nil {
		return
	}
	v, ok := e.t.Sampling[cat]
	if !ok {
		v = e.t.SamplingDefault
	}
	r.SetInt(FieldSampling, v)
}

func (e *RuleEngine) applyView(r *Row, cat SystemCategory) {
	if v, ok := e.t.View[cat]; ok {
		r.Set(FieldView, v)
		return
	}
	if e.t.ViewDefault != "" {
		r.Set(FieldView, e.t.ViewDefault)
	}
}

// applyPermissions runs every matching override in table order. Each rule's
// access condition is checked against the pair as left by earlier rules.
func (e *RuleEngine) applyPermissions(r *Row, cat SystemCategory) {
	for _, p := range e.t.Permissions {
		if !containsCategory(p.Categories, cat) {
			continue
		}
		a := rowAccess(r)
		if !p.When.Matches(a) {
			continue
		}
		if p.Read != Keep {
			a.Read = p.Read
		}
		if p.Write != Keep {
			a.Write = p.Write
		}
		setRowAccess(r, a)
	}
}

// applyRange fills minvalue and maxvalue from the first matching rule, and
// only when both are still empty.
func (e *RuleEngine) applyRange(r *Row, cat SystemCategory) {
	if r.Has(FieldMinValue) || r.Has(FieldMaxValue) {
		return
	}
	name := strings.ToUpper(r.Get(FieldName))
	for _, rr := range e.t.Ranges {
		if len(rr.Categories) > 0 && !containsCategory(rr.Categories, cat) {
			continue
		}
		if len(rr.NamePrefixes) > 0 && !HasAnyPrefix(name, rr.NamePrefixes) {
			continue
		}
		r.SetFloat(FieldMinValue, rr.Min)
		r.SetFloat(FieldMaxValue, rr.Max)
		return
	}
}

func (e *RuleEngine) applyLength(r *Row, cat SystemCategory) {
	length, ok := e.t.Length[cat]
	if !ok {
		length = e.t.LengthDefault
	}
	if length == "" {
		length = r.Get(FieldLength)
	}
	if length == LengthSigned16 {
		length = Length16Bit
		if isNegative(r, FieldMinValue) || isNegative(r, FieldMaxValue) {
			length = LengthS16
		}
	}
	if e.t.NormalizeLength {
		length = NormalizeLength(length)
	}
	r.Set(FieldLength, length)
}

func isNegative(r *Row, field string) bool {
	v, ok := r.Float(field)
	return ok && v < 0
}

// NormalizeLength rounds a bit count down to the widest supported width that
// fits it (1, 2, 4, 8 or 16 bits); counts below one become 1bit. Text without
// a leading number is returned as is.
func NormalizeLength(s string) string {
	m := leadingBitsRegex.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return s
	}
	widths := []int{16, 8, 4, 2}
	for _, w := range widths {
		if n >= w {
			return strconv.Itoa(w) + "bit"
		}
	}
	return Length1Bit
}

func (e *RuleEngine) clampValues(r *Row) {
	limit := e.t.ValueLimit
	if limit <= 0 {
		return
	}
	for _, f := range []string{FieldValue, FieldMinValue, FieldMaxValue} {
		if v, ok := r.Float(f); ok && math.Abs(v) > limit {
			r.SetFloat(f, math.Copysign(limit, v))
		}
	}
}

func (e *RuleEngine) applyUnit(r *Row, cat SystemCategory) {
	if !r.Has(FieldUnit) {
		name := strings.ToUpper(r.Get(FieldName))
		for _, u := range e.t.Units {
			if len(u.Categories) > 0 && !containsCategory(u.Categories, cat) {
				continue
			}
			if strings.Contains(name, u.NameContains) {
				r.Set(FieldUnit, u.Unit)
				break
			}
		}
	}
	if e.t.UnitMap != nil {
		unit := r.Get(FieldUnit)
		mapped, ok := e.t.UnitMap[unit]
		if !ok {
			mapped = e.t.UnitMap[strings.ToUpper(unit)]
		}
		r.Set(FieldUnit, mapped)
	}
}

// AssignMasks gives sibling bit-fields of a parent consecutive bit masks.
// A child is named PARENT_<n> and the parent must exist as a row of its own.
// A parent never carries a _<n> suffix itself, so A_1_1 is not a child of A_1.
// Masks are 1<<(k%MaskBits) for the k-th child in table order, so more than
// sixteen children wrap around to 0x1.
func AssignMasks(rows []*Row) {
	names := make(map[string]bool, len(rows))
	for _, r := range rows {
		name := r.Get(FieldName)
		if !childSuffixRegex.MatchString(name) {
			names[name] = true
		}
	}
	counters := make(map[string]int)
	for _, r := range rows {
		m := childSuffixRegex.FindStringSubmatch(r.Get(FieldName))
		if m == nil || !names[m[1]] {
			continue
		}
		k := counters[m[1]]
		counters[m[1]] = k + 1
		r.Set(FieldMask, fmt.Sprintf("0x%X", 1<<(k%MaskBits)))
	}
}

// DisambiguateNames makes names unique, ignoring case. Every repeat after the
// first occurrence gets the suffix _2, _3, ...; a suffix that would collide
// with another name of the table is skipped.
func DisambiguateNames(rows []*Row) {
	original := make(map[string]bool, len(rows))
	for _, r := range rows {
		original[strings.ToUpper(r.Get(FieldName))] = true
	}
	used := make(map[string]bool, len(rows))
	count := make(map[string]int)
	for _, r := range rows {
		name := r.Get(FieldName)
		key := strings.ToUpper(name)
		count[key]++
		if !used[key] {
			used[key] = true
			continue
		}
		for k := count[key]; ; k++ {
			candidate := name + "_" + strconv.Itoa(k)
			ck := strings.ToUpper(candidate)
			if original[ck] || used[ck] {
				continue
			}
			r.Set(FieldName, candidate)
			used[ck] = true
			break
		}
	}
}

type l10nEntry struct {
	Name        *string         `json:"name"`
	Type        string          `json:"_type"`
	Category    json.RawMessage `json:"category,omitempty"`
	Description *string         `json:"description"`
}

type l10nTranslation struct {
	lang  string
	entry l10nEntry
}

// l10nTranslations marshals as a JSON object that keeps language order.
type l10nTranslations []l10nTranslation

func (t l10nTranslations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tr := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tr.lang)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalCompact(tr.entry)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type l10nDoc struct {
	Type         string           `json:"_type"`
	DefaultLang  string           `json:"default_lang"`
	Translations l10nTranslations `json:"translations"`
}

// BuildL10n renders the l10n cell from the row's per-language description
// columns. Without any description, a single empty entry for the default
// language is emitted.
func BuildL10n(r *Row, rules L10nRules) string {
	entry := func(desc *string) l10nEntry {
		e := l10nEntry{Type: "languages", Description: desc}
		if rules.WithCategory {
			e.Category = json.RawMessage("null")
		}
		return e
	}

	var tr l10nTranslations
	for _, l := range rules.Languages {
		if !r.Has(l.Field) {
			continue
		}
		desc := Truncate(r.Get(l.Field), DescriptionLimit)
		tr = append(tr, l10nTranslation{lang: l.Lang, entry: entry(&desc)})
	}
	if len(tr) == 0 {
		tr = l10nTranslations{{lang: rules.DefaultLang, entry: entry(nil)}}
	}

	out, err := marshalCompact(l10nDoc{Type: "l10n", DefaultLang: rules.DefaultLang, Translations: tr})
	if err != nil {
		return DefaultL10n
	}
	return string(out)
}

// marshalCompact encodes without HTML escaping so accents and symbols stay
// readable in spreadsheet cells.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
