package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerBAE()
}

// registerBAE handles BAE/Baetulenn parameter sheets. A sheet may stack
// several tables, each under its own header row, and wrapped cells spill
// scope, state or unit onto a second physical row.
func registerBAE() {
	core.Register(core.Backend{
		Key:         "bae",
		Label:       "BAE",
		Description: "BAE parameter workbook with stacked tables",
		Group:       GroupSpreadsheet,
		Formats:     spreadsheetFormats,

		Header: core.HeaderRules{
			Mode:       core.HeaderKeywords,
			Match:      core.MatchSubstring,
			SearchRows: -1,
			Aliases: []core.Alias{
				{Field: core.FieldRegister, Variants: []string{"address", "adress", "addr"}},
				{Field: core.FieldDescription, Variants: []string{"content", "contents", "value", "val", "default value", "defalut value", "defaultvalue"}},
				{Field: core.FieldStep, Variants: []string{"step", "paso", "etapa"}},
				{Field: core.FieldScope, Variants: []string{"scope", "scop", "alcance"}},
				{Field: core.FieldState, Variants: []string{"state", "status", "condition"}},
				{Field: core.FieldUnit, Variants: []string{"unit", "units", "unidad", "u"}},
			},
		},
		Extract: core.ExtractRules{
			StopAtHeader: true,
			ScopeSplit:   true,
		},
		Merge: core.MergeRules{
			Continuation:    true,
			ContentField:    core.FieldDescription,
			SecondaryFields: []string{core.FieldScope, core.FieldState, core.FieldUnit},
		},
		Classify: core.ClassifyRules{
			AccessTable: []core.AccessClass{
				{Access: core.AccessReadWrite, Category: core.CategoryConfigParameter},
				{Access: core.AccessWriteOnly, Category: core.CategoryCommand},
			},
			AccessDefault: core.CategoryStatus,
		},
		Rules: core.RuleTables{
			Access: standardAccess,
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryStatus:          60,
				core.CategoryCommand:         0,
				core.CategoryConfigParameter: 0,
			},
			View:        map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault: "simple",
			Length: map[core.SystemCategory]string{
				core.CategoryStatus:          core.LengthSigned16,
				core.CategoryConfigParameter: core.LengthSigned16,
				core.CategoryCommand:         core.Length1Bit,
			},
			LengthDefault: core.LengthSigned16,
		},
	})
}
