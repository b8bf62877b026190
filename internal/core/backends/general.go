package backends

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/regmap/internal/core"
)

//go:embed general_rules.yaml
var generalRulesYAML []byte

func init() {
	registerGeneral()
}

// LoadScoringRules parses and compiles a YAML rule set for content-scored
// header detection.
func LoadScoringRules(data []byte) (*core.ScoringRules, error) {
	var rules core.ScoringRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse scoring rules: %w", err)
	}
	if len(rules.Rules) == 0 {
		return nil, fmt.Errorf("parse scoring rules: no rules defined")
	}
	if err := rules.Compile(); err != nil {
		return nil, fmt.Errorf("compile scoring rules: %w", err)
	}
	return &rules, nil
}

// registerGeneral is the catch-all backend for documents no vendor bundle
// knows. Columns are recognized by their header text when possible and by
// the shape of their content otherwise.
func registerGeneral() {
	scoring, err := LoadScoringRules(generalRulesYAML)
	if err != nil {
		panic(err)
	}

	core.Register(core.Backend{
		Key:         "general",
		Label:       "General",
		Description: "Any register table; columns detected by header text and content",
		Group:       GroupGeneric,
		Formats:     append(append([]string{}, spreadsheetFormats...), tableFormats...),

		Header: core.HeaderRules{
			Mode:       core.HeaderScored,
			Match:      core.MatchExact,
			Unmapped:   core.KeepAsDescription,
			SearchRows: core.DefaultHeaderSearchRows,
			Aliases: []core.Alias{
				{Field: core.FieldAccess, Variants: []string{"R/W", "RW", "Read/Write", "Access", "Acceso", "Direction"}},
				{Field: core.FieldUnit, Variants: []string{"Unit", "Units", "Unidad", "UOM"}},
				{Field: core.FieldRegister, Variants: []string{"Register", "Address", "Registro", "Direccion", "Modbus Address"}},
				{Field: core.FieldSystemCategory, Variants: []string{"System Category", "system_category"}},
				{Field: core.FieldMaxValue, Variants: []string{"Max", "Maximum", "Maximo"}},
				{Field: core.FieldMinValue, Variants: []string{"Min", "Minimum", "Minimo"}},
				{Field: core.FieldName, Variants: []string{"Name", "Nombre", "Variable", "Variable name"}},
				{Field: core.FieldDescription, Variants: []string{"Description", "Descripcion", "Comment"}},
				{Field: core.FieldCategory, Variants: []string{"Category", "Categoria", "Group"}},
			},
			Scoring: scoring,
		},
		Extract: core.ExtractRules{
			NumericFields: []string{core.FieldMinValue, core.FieldMaxValue, core.FieldOffset},
		},
		Classify: core.ClassifyRules{
			AlarmCategoryPrefix: "AL",
			SourceField:         core.FieldSystemCategory,
			AccessTable: []core.AccessClass{
				{Access: core.AccessReadWrite, Category: core.CategoryConfigParameter},
				{Access: core.AccessWriteOnly, Category: core.CategoryCommand},
			},
			AccessDefault: core.CategoryStatus,
		},
		Rules: core.RuleTables{
			Access: standardAccess,
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:    30,
				core.CategorySetPoint: 300,
				core.CategoryStatus:   60,
				core.CategoryCommand:  0,
			},
			SamplingDefault: 60,
			View:            map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault:     "simple",
			Ranges: []core.RangeRule{
				{Categories: cats(core.CategoryAlarm, core.CategoryDigitalInput, core.CategoryDigitalOutput), Min: 0, Max: 1},
			},
			Length: map[core.SystemCategory]string{
				core.CategoryAlarm:         core.Length1Bit,
				core.CategoryDigitalInput:  core.Length1Bit,
				core.CategoryDigitalOutput: core.Length1Bit,
			},
			LengthDefault: core.LengthSigned16,
		},
	})
}
