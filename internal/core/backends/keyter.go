package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerKeyter()
}

// registerKeyter handles the BMS variable list exported as HTML by Keyter
// controllers. The page tables arrive pre-extracted as JSON.
func registerKeyter() {
	core.Register(core.Backend{
		Key:         "keyter",
		Label:       "Keyter BMS",
		Description: "Keyter BMS variable export (HTML tables, pre-extracted)",
		Group:       GroupDocument,
		Formats:     tableFormats,

		Header: core.HeaderRules{
			Mode:  core.HeaderKeywords,
			Match: core.MatchExact,
			Aliases: []core.Alias{
				{Field: core.FieldRegister, Variants: []string{"BMS Address"}},
				{Field: core.FieldName, Variants: []string{"Variable name"}},
				{Field: core.FieldDescription, Variants: []string{"Description"}},
				{Field: core.FieldMinValue, Variants: []string{"Min"}},
				{Field: core.FieldMaxValue, Variants: []string{"Max"}},
				{Field: core.FieldCategory, Variants: []string{"Category"}},
				{Field: core.FieldUnit, Variants: []string{"UOM"}},
				{Field: core.FieldOffset, Variants: []string{"Bms_Ofs"}},
				{Field: core.FieldDataType, Variants: []string{"Bms_Type"}},
				{Field: core.FieldAccess, Variants: []string{"Read/Write", "Direction"}},
			},
		},
		Extract: core.ExtractRules{
			DropNonNumericRegister: true,
			NumericFields:          []string{core.FieldMinValue, core.FieldMaxValue, core.FieldOffset},
		},
		Classify: core.ClassifyRules{
			AlarmCategoryPrefix: "AL",
			AlarmNameMarkers:    []string{"Al"},
			AccessTable: []core.AccessClass{
				{Types: []string{"ANALOG", "ANALOG_INPUT", "ANALOG_OUTPUT"}, Access: core.AccessReadWrite, Category: core.CategorySetPoint},
				{Types: []string{"INTEGER"}, Access: core.AccessReadWrite, Category: core.CategoryConfigParameter},
				{Types: []string{"ANALOG", "INTEGER"}, Access: core.AccessReadOnly, Category: core.CategoryDefault},
				{Types: []string{"DIGITAL", "DIGITAL_INPUT", "DIGITAL_OUTPUT"}, Access: core.AccessReadWrite, Category: core.CategoryCommand},
			},
			AccessDefault: core.CategoryStatus,
		},
		Rules: core.RuleTables{
			Access: map[string]core.Access{
				core.LiteralRead:      {Read: 4, Write: 0},
				core.LiteralReadWrite: {Read: 3, Write: 6},
			},
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryDefault:         60,
				core.CategoryCommand:         0,
				core.CategoryStatus:          60,
				core.CategoryConfigParameter: 0,
			},
			SamplingDefault: 60,
			View:            map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault:     "simple",
			Permissions: []core.PermissionRule{
				perm(cats(core.CategoryAnalogInput, core.CategoryAnalogOutput, core.CategorySystem), core.AccessReadable, 3, core.Keep),
				perm(cats(core.CategoryAlarm), core.AccessReadable, 1, core.Keep),
				perm(cats(core.CategoryStatus), core.AccessReadable, 4, core.Keep),
				perm(cats(core.CategoryCommand), core.AccessReadable, 0, 6),
				perm(cats(core.CategorySetPoint), core.AccessReadWrite, 3, 6),
				perm(cats(core.CategoryConfigParameter, core.CategoryDigitalOutput), core.AccessReadWrite, 1, 5),
				perm(cats(core.CategoryDigitalInput), core.AccessReadWrite, 1, core.Keep),
			},
			Length: map[core.SystemCategory]string{
				core.CategorySetPoint:        core.LengthSigned16,
				core.CategoryAlarm:           core.Length1Bit,
				core.CategoryCommand:         core.Length1Bit,
				core.CategoryStatus:          core.Length1Bit,
				core.CategoryConfigParameter: core.LengthSigned16,
				core.CategorySystem:          core.Length1Bit,
				core.CategoryDefault:         core.LengthSigned16,
			},
			LengthDefault: core.LengthSigned16,
		},
	})
}
