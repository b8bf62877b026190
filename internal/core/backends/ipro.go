package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerIPro()
}

// registerIPro handles iPro PLC variable exports. Array variables are
// expanded into one child per position so that each bit gets its own mask.
func registerIPro() {
	core.Register(core.Backend{
		Key:         "ipro",
		Label:       "iPro",
		Description: "iPro PLC variable export with array dimensions",
		Group:       GroupSpreadsheet,
		Formats:     spreadsheetFormats,

		Header: core.HeaderRules{
			Mode:  core.HeaderKeywords,
			Match: core.MatchExact,
			Aliases: []core.Alias{
				{Field: core.FieldName, Variants: []string{"Name"}},
				{Field: core.FieldRegister, Variants: []string{"Address"}},
				{Field: core.FieldDimension, Variants: []string{"Dimension"}},
				{Field: core.FieldDescription, Variants: []string{"Comment"}},
				{Field: core.FieldCategory, Variants: []string{"Wiring"}},
				{Field: core.FieldLength, Variants: []string{"String Size"}},
				{Field: core.FieldAccess, Variants: []string{"Attribute"}},
				{Field: core.FieldGroups, Variants: []string{"Groups"}},
			},
		},
		Extract: core.ExtractRules{
			SkipAfterHeader:        1,
			HexRegisters:           true,
			DropNonNumericRegister: true,
			ExpandDimensions:       true,
		},
		Classify: core.ClassifyRules{
			SourceField: core.FieldGroups,
			CategoryMap: []core.CategoryMatch{
				{Pattern: "INSTANCIA", Contains: true, Category: core.CategoryDefault},
				{Pattern: "REGISTRO", Contains: true, Category: core.CategoryDefault},
				{Pattern: "ENTRADAS_SALIDAS", Contains: true, Category: core.CategoryDefault},
				{Pattern: "ESTADOS", Contains: true, Category: core.CategoryStatus},
				{Pattern: "COMANDOS", Contains: true, Category: core.CategoryCommand},
				{Pattern: "ALARMAS", Contains: true, Category: core.CategoryAlarm},
				{Pattern: "WARNINGS", Contains: true, Category: core.CategoryAlarm},
				{Pattern: "PARAMETROS_CONFIGURACION", Contains: true, Category: core.CategoryConfigParameter},
			},
		},
		Rules: core.RuleTables{
			Access: map[string]core.Access{
				core.LiteralRead:      {Read: 3, Write: 0},
				core.LiteralReadWrite: {Read: 3, Write: 16},
				core.LiteralWrite:     {Read: 0, Write: 6},
			},
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryDefault:         0,
				core.CategoryCommand:         0,
				core.CategoryStatus:          60,
				core.CategorySystem:          0,
				core.CategoryConfigParameter: 0,
			},
			ViewDefault: "simple",
			Permissions: []core.PermissionRule{
				perm(cats(core.CategoryAlarm), core.AccessReadOnly, 1, core.Keep),
				perm(cats(core.CategoryStatus), core.AccessReadOnly, 4, core.Keep),
				perm(cats(core.CategoryCommand), core.AccessReadWrite, 0, 16),
				perm(cats(core.CategoryConfigParameter), core.AccessReadWrite, 3, 16),
			},
			Ranges: []core.RangeRule{
				{Categories: cats(core.CategoryCommand, core.CategoryConfigParameter, core.CategoryAlarm), Min: 0, Max: 1},
			},
			NormalizeLength: true,
			Masks:           true,
		},
	})
}
