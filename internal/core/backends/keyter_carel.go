package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerKeyterCarel()
}

// registerKeyterCarel handles the multi-sheet Carel workbook shipped with
// newer Keyter units. The header sits on Excel row 5 with a units row below.
func registerKeyterCarel() {
	core.Register(core.Backend{
		Key:             "keyter_carel",
		Label:           "Keyter Carel",
		Description:     "Keyter/Carel multi-sheet workbook with per-language descriptions",
		Group:           GroupSpreadsheet,
		Formats:         spreadsheetFormats,
		PreferredSheets: []string{"ANALOG", "INTEGER", "BOOL"},

		Header: core.HeaderRules{
			Mode:     core.HeaderFixed,
			Match:    core.MatchExact,
			FixedRow: 4,
			Aliases: []core.Alias{
				{Field: core.FieldRegister, Variants: []string{"MODBUS ADDRESS CAREL"}},
				{Field: core.FieldName, Variants: []string{"Name of the variable CAREL"}},
				{Field: core.FieldDescription, Variants: []string{"Descripción (ES)"}},
				{Field: "description_en", Variants: []string{"Description (EN)"}},
				{Field: "description_de", Variants: []string{"Beschreibung (DE)"}},
				{Field: "description_fr", Variants: []string{"Description (FR)"}},
				{Field: "description_it", Variants: []string{"Descrizione (IT)"}},
				{Field: core.FieldUnit, Variants: []string{"Unit"}},
				{Field: core.FieldMinValue, Variants: []string{"Min"}},
				{Field: core.FieldMaxValue, Variants: []string{"Max"}},
				{Field: core.FieldRawCategory, Variants: []string{"Category"}},
				{Field: core.FieldAccess, Variants: []string{"R/W", "direction"}},
			},
		},
		Extract: core.ExtractRules{
			SkipAfterHeader: 1,
			UpperNames:      true,
			NumericFields:   []string{core.FieldMinValue, core.FieldMaxValue},
		},
		Classify: core.ClassifyRules{
			SourceField: core.FieldRawCategory,
			CategoryMap: []core.CategoryMatch{
				{Pattern: "CONSIGNA", Category: core.CategorySetPoint},
				{Pattern: "E.ANALOGICA", Category: core.CategoryAnalogInput},
				{Pattern: "ALARMA", Category: core.CategoryAlarm},
				{Pattern: "COMANDO", Category: core.CategoryCommand},
				{Pattern: "E.DIGITAL", Category: core.CategoryDigitalInput},
				{Pattern: "ESTADO", Category: core.CategoryStatus},
				{Pattern: "PARAMETRO", Category: core.CategoryConfigParameter},
				{Pattern: "S.ANALOGICA", Category: core.CategoryAnalogOutput},
				{Pattern: "S.DIGITAL", Category: core.CategoryDigitalOutput},
				{Pattern: "SISTEMA", Category: core.CategorySystem},
			},
		},
		Rules: core.RuleTables{
			Access:      standardAccess,
			RequireName: true,
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryDefault:         0,
				core.CategoryCommand:         0,
				core.CategoryStatus:          60,
				core.CategorySystem:          0,
				core.CategoryConfigParameter: 0,
			},
			View:        map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault: "simple",
			Permissions: []core.PermissionRule{
				perm(cats(core.CategoryAnalogInput, core.CategoryAnalogOutput, core.CategorySystem), core.AccessReadOnly, 3, core.Keep),
				perm(cats(core.CategoryAlarm), core.AccessReadOnly, 1, core.Keep),
				perm(cats(core.CategoryStatus), core.AccessReadOnly, 4, core.Keep),
				perm(cats(core.CategoryCommand), core.AccessReadOnly, core.Keep, 6),
				perm(cats(core.CategorySetPoint), core.AccessReadWrite, 3, 6),
				perm(cats(core.CategoryConfigParameter, core.CategoryDigitalOutput), core.AccessReadWrite, 1, 5),
				perm(cats(core.CategoryDigitalInput), core.AccessReadWrite, 1, core.Keep),
			},
			Length: map[core.SystemCategory]string{
				core.CategorySetPoint:        core.LengthSigned16,
				core.CategoryAnalogInput:     core.LengthSigned16,
				core.CategoryConfigParameter: core.LengthSigned16,
				core.CategoryAnalogOutput:    core.LengthSigned16,
				core.CategoryAlarm:           core.Length1Bit,
				core.CategoryCommand:         core.Length1Bit,
				core.CategoryDigitalInput:    core.Length1Bit,
				core.CategoryStatus:          core.Length1Bit,
				core.CategoryDigitalOutput:   core.Length1Bit,
				core.CategorySystem:          core.Length16Bit,
			},
			LengthDefault:  core.LengthSigned16,
			ValueLimit:     32767,
			SetPointOffset: 0.1,
			L10n: core.L10nRules{
				DefaultLang:  "es_ES",
				WithCategory: true,
				Languages: []core.Language{
					{Field: "description_en", Lang: "en_US"},
					{Field: core.FieldDescription, Lang: "es_ES"},
					{Field: "description_de", Lang: "de_DE"},
					{Field: "description_fr", Lang: "fr_FR"},
					{Field: "description_it", Lang: "it_IT"},
				},
			},
		},
	})
}
