package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerDixell()
}

// Dixell manual sections. The section key is what the classifier sees.
const (
	dixellGeneral     = "GENERAL RULES"
	dixellComms       = "COMUNICATION INFO"
	dixellDeviceID    = "DEVICE ID"
	dixellAnalogInput = "ANALOG INPUT"
	dixellSetPoint    = "SET POINT"
	dixellStatus      = "DEVICE STATUS"
	dixellDigitalIn   = "DIGITAL INPUT"
	dixellDigitalOut  = "DIGITAL OUTPUT"
	dixellDigitalIO   = "DIGITAL OUTPUT/INPUT"
	dixellClock       = "CLOCK"
	dixellAlarms      = "ALARMS"
	dixellSerial      = "SERIAL OUTPUT"
	dixellCommands    = "COMMANDS"
)

// registerDixell handles Dixell Modbus manuals. Each register table is
// preceded by a one-line title table naming its section; tables continued on
// the next page carry no header and reuse the previous one. Addresses and
// values are hexadecimal.
func registerDixell() {
	core.Register(core.Backend{
		Key:           "dixell",
		Label:         "Dixell",
		Description:   "Dixell Modbus manual (PDF tables pre-extracted)",
		Group:         GroupDocument,
		Formats:       tableFormats,
		InheritHeader: true,
		Sections: []core.Alias{
			{Field: dixellGeneral, Variants: []string{"GENERAL RULES"}},
			{Field: dixellComms, Variants: []string{"COMUNICATION INFO", "COMMUNICATION INFO"}},
			{Field: dixellDeviceID, Variants: []string{"DEVICE ID"}},
			{Field: dixellAnalogInput, Variants: []string{"ANALOG INPUT", "ANALOG"}},
			{Field: dixellSetPoint, Variants: []string{"SET POINT", "SETPOINT", "SP"}},
			{Field: dixellStatus, Variants: []string{"DEVICE STATUS", "STATUS"}},
			{Field: dixellDigitalIn, Variants: []string{"DIGITAL INPUT", "DI"}},
			{Field: dixellDigitalOut, Variants: []string{"DIGITAL OUTPUT", "DO"}},
			{Field: dixellDigitalIO, Variants: []string{"DIGITAL OUTPUT/INPUT"}},
			{Field: dixellClock, Variants: []string{"CLOCK", "TIME"}},
			{Field: dixellAlarms, Variants: []string{"ALARMS", "ALARM"}},
			{Field: dixellSerial, Variants: []string{"SERIAL OUTPUT", "SERIAL"}},
			{Field: dixellCommands, Variants: []string{"COMMANDS", "COMMAND"}},
		},

		Header: core.HeaderRules{
			Mode:       core.HeaderKeywords,
			Match:      core.MatchExact,
			MinMatches: 3,
			Aliases: []core.Alias{
				{Field: core.FieldName, Variants: []string{"Name", "VAR NAME"}},
				{Field: core.FieldUnit, Variants: []string{"Unit"}},
				{Field: core.FieldReadRegister, Variants: []string{"Read Register"}},
				{Field: core.FieldWriteRegister, Variants: []string{"Write Register"}},
				{Field: core.FieldRegister, Variants: []string{"Register"}},
				{Field: core.FieldDecimal, Variants: []string{"Dec"}},
				{Field: core.FieldOffset, Variants: []string{"Offset"}},
				{Field: core.FieldLength, Variants: []string{"Format"}},
				{Field: core.FieldAccess, Variants: []string{"R / W", "R/W"}},
				{Field: core.FieldValue, Variants: []string{"Value", "TYPE"}},
				{Field: core.FieldDescription, Variants: []string{"DESCRIPTION"}},
				{Field: core.FieldCategory, Variants: []string{"GROUP"}},
			},
		},
		Extract: core.ExtractRules{
			RegisterFallback: []string{core.FieldReadRegister, core.FieldWriteRegister, core.FieldDecimal},
			HexRegisters:     true,
			HexValues:        true,
			NumericFields:    []string{core.FieldOffset},
		},
		Classify: core.ClassifyRules{
			SourceField: core.FieldSection,
			Drop:        []string{dixellClock, dixellSerial, dixellGeneral, dixellComms},
			NameContains: []core.CategoryMatch{
				{Pattern: "INPUT", Contains: true, Category: core.CategoryDigitalInput},
				{Pattern: "OUTPUT", Contains: true, Category: core.CategoryDigitalOutput},
			},
			CategoryMap: []core.CategoryMatch{
				{Pattern: dixellSetPoint, Category: core.CategorySetPoint},
				{Pattern: dixellAnalogInput, Category: core.CategoryAnalogInput},
				{Pattern: dixellAlarms, Category: core.CategoryAlarm},
				{Pattern: dixellCommands, Category: core.CategoryCommand},
				{Pattern: dixellDigitalIn, Category: core.CategoryDigitalInput},
				{Pattern: dixellDigitalOut, Category: core.CategoryDigitalOutput},
				{Pattern: dixellDigitalIO, Category: core.CategoryDigitalOutput},
				{Pattern: dixellStatus, Category: core.CategoryStatus},
				{Pattern: dixellDeviceID, Category: core.CategorySystem},
			},
			Fallback: core.CategoryDefault,
		},
		Rules: core.RuleTables{
			Access: standardAccess,
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryDefault:         0,
				core.CategoryCommand:         0,
				core.CategoryStatus:          60,
				core.CategorySystem:          0,
				core.CategoryConfigParameter: 0,
				core.CategoryAnalogInput:     60,
				core.CategoryAnalogOutput:    60,
				core.CategoryDigitalInput:    60,
				core.CategoryDigitalOutput:   60,
			},
			View:        map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault: "simple",
			Permissions: []core.PermissionRule{
				perm(cats(core.CategoryAnalogInput, core.CategoryAnalogOutput, core.CategorySystem), core.AccessReadOnly, 3, core.Keep),
				perm(cats(core.CategoryAlarm), core.AccessReadOnly, 1, core.Keep),
				perm(cats(core.CategoryStatus), core.AccessReadOnly, 1, core.Keep),
				perm(cats(core.CategoryCommand), core.AccessReadOnly, core.Keep, 5),
				perm(cats(core.CategorySetPoint), core.AccessReadWrite, 3, 10),
				perm(cats(core.CategoryDigitalOutput), core.AccessReadWrite, 1, 0),
				perm(cats(core.CategoryDigitalInput), core.AccessReadWrite, 1, core.Keep),
			},
			Length: map[core.SystemCategory]string{
				core.CategorySetPoint:        core.Length16Bit,
				core.CategoryAnalogInput:     core.Length16Bit,
				core.CategoryConfigParameter: core.Length16Bit,
				core.CategoryAnalogOutput:    core.Length16Bit,
				core.CategorySerialOutput:    core.Length16Bit,
				core.CategorySystem:          core.Length16Bit,
				core.CategoryAlarm:           core.Length1Bit,
				core.CategoryCommand:         core.Length1Bit,
				core.CategoryDigitalInput:    core.Length1Bit,
				core.CategoryStatus:          core.Length1Bit,
				core.CategoryDigitalOutput:   core.Length1Bit,
			},
			LengthDefault: core.Length16Bit,
			UnitMap: map[string]string{
				`par "CF"`: "°C",
				"RPM":      "rpm",
			},
		},
	})
}
