// Package backends registers every vendor bundle with the core registry.
// Import this package for its side effects to make the backends available.
package backends

import "github.com/JonMunkholm/regmap/internal/core"

// Groups used by the backend listing.
const (
	GroupSpreadsheet = "Spreadsheet"
	GroupDocument    = "Document"
	GroupGeneric     = "Generic"
)

// Shared format lists.
var (
	spreadsheetFormats = []string{".xlsx", ".xlsm", ".csv"}
	tableFormats       = []string{".json"}
)

// standardAccess is the read/write pair most vendors use for the three
// access literals.
var standardAccess = map[string]core.Access{
	core.LiteralRead:      {Read: 4, Write: 0},
	core.LiteralWrite:     {Read: 0, Write: 6},
	core.LiteralReadWrite: {Read: 3, Write: 6},
}

func cats(c ...core.SystemCategory) []core.SystemCategory {
	return c
}

func perm(categories []core.SystemCategory, when core.AccessKind, read, write int) core.PermissionRule {
	return core.PermissionRule{Categories: categories, When: when, Read: read, Write: write}
}
