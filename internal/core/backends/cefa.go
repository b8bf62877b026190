package backends

import (
	"github.com/JonMunkholm/regmap/internal/core"
)

func init() {
	registerCefa()
}

var cefaConfigPrefixes = []string{"P_", "NIVEL", "RESERVA", "TPO", "AJUSTE", "OFFSET"}

// registerCefa handles Cefa PDF manuals. The register table is split over
// pages, so all page tables are joined before the header is searched.
// Groups are introduced by heading rows without a register, by a register
// that repeats, and by LECTURA/ESCRITURA rows switching the access mode.
func registerCefa() {
	core.Register(core.Backend{
		Key:          "cefa",
		Label:        "Cefa",
		Description:  "Cefa PDF register manual (tables pre-extracted)",
		Group:        GroupDocument,
		Formats:      tableFormats,
		ConcatTables: true,

		Header: core.HeaderRules{
			Mode:       core.HeaderKeywords,
			Match:      core.MatchSubstring,
			MinMatches: 3,
			Aliases: []core.Alias{
				{Field: core.FieldRegister, Variants: []string{"DIRECCION"}},
				{Field: core.FieldName, Variants: []string{"Nombre"}},
				{Field: core.FieldLength, Variants: []string{"Longitud Word Dato"}},
				{Field: core.FieldDescription, Variants: []string{"Valores"}},
			},
		},
		Extract: core.ExtractRules{
			MetaWords: []string{"pagina", "continua"},
		},
		Merge: core.MergeRules{
			Labels:                  true,
			BlankRegisterLabels:     true,
			DuplicateRegisterLabels: true,
			ModeKeywords: []core.ModeKeyword{
				{Keyword: "ESCRITURA", Access: core.LiteralWrite},
				{Keyword: "LECTURA", Access: core.LiteralRead},
			},
			InitialCategory: string(core.CategoryDefault),
		},
		Classify: core.ClassifyRules{
			AlarmCategoryPrefix: "AL",
			CommandPrefixes:     []string{"CONTROL", "RESET"},
			ConfigPrefixes:      cefaConfigPrefixes,
			SetPointPrefixes:    []string{"SP", "CONSIGNA"},
			SourceField:         core.FieldCategory,
			CategoryMap: []core.CategoryMatch{
				{Pattern: "ANALOGICAS", Category: core.CategoryAnalogOutput},
				{Pattern: "CONTROL_EQUIPOS", Category: core.CategoryDigitalOutput},
				{Pattern: "ESTADO_EQUIPOS", Category: core.CategoryStatus},
			},
			Fallback: core.CategoryDefault,
		},
		Rules: core.RuleTables{
			Access: map[string]core.Access{
				core.LiteralRead:      {Read: 4, Write: 0},
				core.LiteralWrite:     {Read: 0, Write: 6},
				core.LiteralReadWrite: {Read: 4, Write: 6},
			},
			Sampling: map[core.SystemCategory]int{
				core.CategoryAlarm:           30,
				core.CategorySetPoint:        300,
				core.CategoryDefault:         60,
				core.CategoryCommand:         0,
				core.CategoryStatus:          60,
				core.CategorySystem:          0,
				core.CategoryConfigParameter: 0,
			},
			SamplingDefault: 60,
			View:            map[core.SystemCategory]string{core.CategoryStatus: "basic"},
			ViewDefault:     "simple",
			Permissions: []core.PermissionRule{
				perm(cats(core.CategoryAlarm), core.AccessAny, 1, core.Keep),
				perm(cats(core.CategoryStatus), core.AccessAny, 4, core.Keep),
				perm(cats(core.CategoryCommand), core.AccessAny, 0, 6),
				perm(cats(core.CategorySetPoint), core.AccessAny, 3, 6),
				perm(cats(core.CategoryConfigParameter), core.AccessAny, 1, 5),
				perm(cats(core.CategoryAnalogOutput), core.AccessAny, 3, core.Keep),
				perm(cats(core.CategoryDigitalOutput), core.AccessAny, 0, 6),
				perm(cats(core.CategorySystem), core.AccessAny, 3, 0),
			},
			Ranges: []core.RangeRule{
				{Categories: cats(core.CategoryAlarm), Min: 0, Max: 1},
				{Categories: cats(core.CategoryDigitalInput, core.CategoryDigitalOutput), Min: 0, Max: 1},
				{Categories: cats(core.CategoryAnalogOutput), NamePrefixes: []string{"TEMP"}, Min: -270, Max: 270},
				{Categories: cats(core.CategoryAnalogOutput), Min: 0, Max: 9999},
				{Categories: cats(core.CategoryConfigParameter), NamePrefixes: []string{"NIVEL"}, Min: 0, Max: 100},
				{Categories: cats(core.CategoryConfigParameter), NamePrefixes: cefaConfigPrefixes, Min: 0, Max: 9999},
				{Categories: cats(core.CategorySetPoint), Min: 0, Max: 9999},
			},
			Units: []core.UnitRule{
				{Categories: cats(core.CategoryAnalogOutput), NameContains: "PRESION", Unit: "bar"},
				{Categories: cats(core.CategoryAnalogOutput), NameContains: "TEMP", Unit: "°C"},
				{Categories: cats(core.CategoryAnalogOutput), NameContains: "CAUDALIMETRO", Unit: "m3/s"},
			},
		},
		Defaults: map[string]string{
			core.FieldSystemCategory: string(core.CategoryStatus),
			core.FieldLength:         core.Length16Bit,
		},
	})
}
