package core

// cell.go holds the per-cell coercions every pipeline stage relies on.
//
// Vendor register maps arrive with all the usual spreadsheet noise:
//   - Excel formula wrappers (="40001") and stray quotes
//   - Non-breaking spaces and accents in headers ("Dirección", "Descripción")
//   - Registers written in hex (0x1A, 1A) or as floats (40001.0)
//   - Decimal commas in numeric columns (12,5)
//
// Every function here is total: bad input yields a defined fallback value,
// never an error.

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var hexRegex = regexp.MustCompile(`^[0-9a-fA-F]+$`)

var spaceRun = regexp.MustCompile(`\s+`)

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace and non-breaking spaces
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	if n := len(s); n >= 2 && (s[0] == '"' || s[0] == '\'') && s[n-1] == s[0] {
		s = s[1 : n-1]
	}
	return strings.TrimSpace(s)
}

// IsBlank reports whether a cell carries no data. Spreadsheet exports use
// "nan" and "None" for empty cells surprisingly often.
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null", "<na>":
		return true
	}
	return false
}

// StripAccents removes combining marks: "Dirección" -> "Direccion".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader lowercases, strips accents and collapses whitespace.
func NormalizeHeader(s string) string {
	s = StripAccents(CleanCell(s))
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName upper-cases a variable name and joins words with underscores.
func NormalizeName(s string) string {
	s = spaceRun.ReplaceAllString(CleanCell(s), "_")
	return strings.ToUpper(s)
}

// ParseNumber parses a tolerant numeric cell. Decimal commas, thousands
// separators and accounting parentheses are accepted.
func ParseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if IsBlank(s) {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// A single comma with no dot is a decimal comma; otherwise commas are
	// thousands separators.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.ReplaceAll(s, " ", "")

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber renders integral floats without a decimal part.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseHex parses "0x1A" or a bare run of hex digits ("1A", "100") as base 16.
func ParseHex(s string) (int64, bool) {
	s = CleanCell(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		v, err := strconv.ParseInt(lower[2:], 16, 64)
		return v, err == nil
	}
	if hexRegex.MatchString(s) {
		v, err := strconv.ParseInt(s, 16, 64)
		return v, err == nil
	}
	return 0, false
}

// NormalizeRegister returns the decimal form of a register address. When hex
// is set, bare digit strings are read as hexadecimal as well. Values that do
// not parse are returned cleaned but otherwise untouched.
func NormalizeRegister(s string, hex bool) string {
	s = CleanCell(s)
	if IsBlank(s) {
		return ""
	}
	if hex {
		if v, ok := ParseHex(s); ok {
			return strconv.FormatInt(v, 10)
		}
	} else if strings.HasPrefix(strings.ToLower(s), "0x") {
		if v, ok := ParseHex(s); ok {
			return strconv.FormatInt(v, 10)
		}
	}
	if f, ok := ParseNumber(s); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// IsNumericRegister reports whether a register cell is a plain number.
func IsNumericRegister(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// HasAnyPrefix reports whether s starts with any of prefixes.
func HasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// isEmptyRow checks if all cells in a row are blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if !IsBlank(cell) {
			return false
		}
	}
	return true
}
