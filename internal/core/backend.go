package core

import (
	"errors"
	"fmt"
	"strings"
)

// Tuned heuristics. These values were calibrated against real vendor exports;
// changing them shifts which rows are detected as headers.
const (
	DefaultHeaderMatches    = 4   // cells that must match a variant for a header row
	DefaultHeaderSearchRows = 20  // rows scanned for a header when none is fixed
	HighScoreThreshold      = 1.5 // column score accepted outright
	LowScoreThreshold       = 1.0 // column score accepted when nothing better exists
	MetaWordRatio           = 0.2 // share of meta words that marks a non-data row
	DescriptionLimit        = 60  // runes kept in descriptions
	MaskBits                = 16  // bit positions available to sibling masks
)

// Keep leaves a permission code untouched in a PermissionRule.
const Keep = -1

// HeaderMode selects how a backend finds its header row.
type HeaderMode int

const (
	// HeaderKeywords accepts every row with at least MinMatches variant hits.
	HeaderKeywords HeaderMode = iota
	// HeaderFixed uses a row index fixed by the vendor export layout.
	HeaderFixed
	// HeaderScored picks the best keyword row and maps columns by content.
	HeaderScored
)

// MatchMode controls how a normalized header cell is compared to a variant.
type MatchMode int

const (
	MatchSubstring MatchMode = iota
	MatchExact
)

// UnmappedPolicy decides what happens to header cells no alias recognizes.
type UnmappedPolicy int

const (
	DropUnmapped UnmappedPolicy = iota
	KeepAsDescription
)

// Alias maps a list of header variants to a canonical field. Aliases are
// tried in slice order, so higher-priority fields come first.
type Alias struct {
	Field    string
	Variants []string
}

// HeaderRules configures the Header Detector.
type HeaderRules struct {
	Mode       HeaderMode
	Match      MatchMode
	Aliases    []Alias
	MinMatches int // 0 means DefaultHeaderMatches
	SearchRows int // 0 means DefaultHeaderSearchRows, negative scans the whole grid
	FixedRow   int // zero-based, HeaderFixed only
	Unmapped   UnmappedPolicy
	Scoring    *ScoringRules
}

// ExtractRules configures the Table Extractor.
type ExtractRules struct {
	SkipAfterHeader        int      // rows skipped between header and data (units rows)
	StopAtHeader           bool     // a repeated header row ends the data block
	MetaWords              []string // lowercase words that mark page furniture
	ScopeSplit             bool
	NumericFields          []string
	HexRegisters           bool
	HexValues              bool // value cells are hex; undecodable values become 0
	UpperNames             bool
	RegisterFallback       []string // fields tried in order when register is blank
	DropNonNumericRegister bool
	ExpandDimensions       bool
	DescriptionLimit       int // 0 means DescriptionLimit
}

// MergeRules configures the Row Merger / Propagator.
type MergeRules struct {
	Continuation    bool
	ContentField    string
	SecondaryFields []string

	Labels                  bool
	BlankRegisterLabels     bool
	DuplicateRegisterLabels bool
	ModeKeywords            []ModeKeyword
	KeepLabelPrefixes       []string
	InitialCategory         string // "" means DEFAULT
}

// ModeKeyword switches the access literal of the rows that follow it.
type ModeKeyword struct {
	Keyword string
	Access  string
}

// CategoryMatch maps source text to a system category.
type CategoryMatch struct {
	Pattern  string
	Contains bool
	Category SystemCategory
}

func (m CategoryMatch) matches(s string) bool {
	if m.Contains {
		return strings.Contains(s, m.Pattern)
	}
	return s == m.Pattern
}

// AccessClass is one row of the access-pattern truth table.
type AccessClass struct {
	Types    []string // upper-case raw data types; empty matches any
	Access   AccessKind
	Category SystemCategory
}

// ClassifyRules configures the Classifier.
type ClassifyRules struct {
	AlarmCategoryPrefix string
	AlarmNameMarkers    []string // case-sensitive substrings of name
	CommandPrefixes     []string
	ConfigPrefixes      []string
	SetPointPrefixes    []string
	NameContains        []CategoryMatch
	SourceField         string // field consulted by CategoryMap
	CategoryMap         []CategoryMatch
	AccessTable         []AccessClass
	AccessDefault       SystemCategory // result when AccessTable has no match
	Drop                []string       // source values whose rows are discarded
	Fallback            SystemCategory // "" discards unclassified rows
}

// PermissionRule overrides the base read/write pair for some categories.
type PermissionRule struct {
	Categories []SystemCategory
	When       AccessKind
	Read       int // Keep leaves the current value
	Write      int
}

// RangeRule fills minvalue/maxvalue when both are empty.
type RangeRule struct {
	Categories   []SystemCategory
	NamePrefixes []string
	Min, Max     float64
}

// UnitRule infers a unit from a name substring.
type UnitRule struct {
	Categories   []SystemCategory
	NameContains string
	Unit         string
}

// Language maps a description column to a locale.
type Language struct {
	Field string
	Lang  string
}

// L10nRules configures the l10n JSON column.
type L10nRules struct {
	DefaultLang  string
	Languages    []Language
	WithCategory bool
}

// RuleTables holds every table-driven derivation of the Rule Engine.
type RuleTables struct {
	Access map[string]Access

	// RequireName drops rows without a name instead of deriving one from
	// the description or register.
	RequireName bool

	Sampling        map[SystemCategory]int
	SamplingDefault int

	View        map[SystemCategory]string
	ViewDefault string

	Permissions []PermissionRule
	Ranges      []RangeRule

	Length          map[SystemCategory]string
	LengthDefault   string
	NormalizeLength bool

	ValueLimit     float64
	Units          []UnitRule
	UnitMap        map[string]string
	SetPointOffset float64

	Masks bool

	L10n L10nRules
}

// Backend is the declarative bundle that drives the shared pipeline for one
// vendor or file format.
type Backend struct {
	Key         string
	Label       string
	Description string
	Group       string
	Formats     []string // accepted file extensions, lowercase with dot

	PreferredSheets []string
	Sections        []Alias // table titles that open a section
	ConcatTables    bool    // tables of a document are one logical table split by pages
	InheritHeader   bool    // a table without header reuses the previous table's header

	Header   HeaderRules
	Extract  ExtractRules
	Merge    MergeRules
	Classify ClassifyRules
	Rules    RuleTables

	Defaults map[string]string // finalizer defaults per output column
}

// Accepts reports whether the backend handles files with the given extension.
func (b Backend) Accepts(ext string) bool {
	ext = strings.ToLower(ext)
	for _, f := range b.Formats {
		if f == ext {
			return true
		}
	}
	return false
}

// Validate checks a bundle for wiring mistakes before it is registered.
func (b Backend) Validate() error {
	var errs []error
	if b.Key == "" {
		errs = append(errs, errors.New("backend key is required"))
	}
	if len(b.Header.Aliases) == 0 && b.Header.Scoring == nil {
		errs = append(errs, fmt.Errorf("%s: header aliases or scoring rules are required", b.Key))
	}
	if b.Header.Mode == HeaderScored && b.Header.Scoring == nil {
		errs = append(errs, fmt.Errorf("%s: scored header mode needs scoring rules", b.Key))
	}
	for _, c := range b.Classify.CategoryMap {
		if !c.Category.Valid() {
			errs = append(errs, fmt.Errorf("%s: category map yields unknown category %q", b.Key, c.Category))
		}
	}
	for _, c := range b.Classify.AccessTable {
		if !c.Category.Valid() {
			errs = append(errs, fmt.Errorf("%s: access table yields unknown category %q", b.Key, c.Category))
		}
	}
	if b.Classify.Fallback != "" && !b.Classify.Fallback.Valid() {
		errs = append(errs, fmt.Errorf("%s: unknown fallback category %q", b.Key, b.Classify.Fallback))
	}
	return errors.Join(errs...)
}

func (h HeaderRules) minMatches() int {
	if h.MinMatches > 0 {
		return h.MinMatches
	}
	return DefaultHeaderMatches
}

func (h HeaderRules) searchRows(total int) int {
	switch {
	case h.SearchRows < 0:
		return total
	case h.SearchRows == 0:
		return min(total, DefaultHeaderSearchRows)
	default:
		return min(total, h.SearchRows)
	}
}

func (e ExtractRules) descriptionLimit() int {
	if e.DescriptionLimit > 0 {
		return e.DescriptionLimit
	}
	return DescriptionLimit
}

func containsCategory(list []SystemCategory, c SystemCategory) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
