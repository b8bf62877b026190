package core

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
)

// ============================================================================
// Mask Tests
// ============================================================================

func TestAssignMasks_WrapsAfterSixteenChildren(t *testing.T) {
	rows := []*Row{RowOf(FieldName, "SONDAS")}
	for i := 1; i <= 18; i++ {
		rows = append(rows, RowOf(FieldName, "SONDAS_"+strconv.Itoa(i)))
	}

	AssignMasks(rows)

	if m := rows[0].Get(FieldMask); m != "" {
		t.Errorf("parent mask = %q, want empty", m)
	}
	for i, r := range rows[1:] {
		want := fmt.Sprintf("0x%X", 1<<(i%16))
		if got := r.Get(FieldMask); got != want {
			t.Errorf("%s mask = %q, want %q", r.Get(FieldName), got, want)
		}
	}
	if got := rows[16].Get(FieldMask); got != "0x8000" {
		t.Errorf("16th child mask = %q, want 0x8000", got)
	}
	if got := rows[17].Get(FieldMask); got != "0x1" {
		t.Errorf("17th child mask = %q, want 0x1", got)
	}
	if got := rows[18].Get(FieldMask); got != "0x2" {
		t.Errorf("18th child mask = %q, want 0x2", got)
	}
}

func TestAssignMasks_OrphanSuffixIgnored(t *testing.T) {
	rows := []*Row{RowOf(FieldName, "PUMP_1"), RowOf(FieldName, "PUMP_2")}
	AssignMasks(rows)
	for _, r := range rows {
		if m := r.Get(FieldMask); m != "" {
			t.Errorf("%s mask = %q, want empty without a parent row", r.Get(FieldName), m)
		}
	}
}

func TestAssignMasks_SuffixedNameIsNotAParent(t *testing.T) {
	rows := []*Row{
		RowOf(FieldName, "A_1"),
		RowOf(FieldName, "A_1_1"),
		RowOf(FieldName, "A_1_2"),
	}
	AssignMasks(rows)
	for _, r := range rows {
		if m := r.Get(FieldMask); m != "" {
			t.Errorf("%s mask = %q, want empty", r.Get(FieldName), m)
		}
	}

	rows = append([]*Row{RowOf(FieldName, "A")}, rows...)
	AssignMasks(rows)
	want := []string{"", "0x1", "", ""}
	for i, r := range rows {
		if got := r.Get(FieldMask); got != want[i] {
			t.Errorf("%s mask = %q, want %q", r.Get(FieldName), got, want[i])
		}
	}
}

// ============================================================================
// Name Tests
// ============================================================================

func TestDisambiguateNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"unique untouched", []string{"A", "B"}, []string{"A", "B"}},
		{"repeats numbered", []string{"TEMP", "TEMP", "TEMP"}, []string{"TEMP", "TEMP_2", "TEMP_3"}},
		{"case-insensitive", []string{"Temp", "TEMP"}, []string{"Temp", "TEMP_2"}},
		{"skips colliding suffix", []string{"X", "X", "X_2"}, []string{"X", "X_3", "X_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []*Row
			for _, n := range tt.in {
				rows = append(rows, RowOf(FieldName, n))
			}
			DisambiguateNames(rows)
			got := names(rows)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("DisambiguateNames(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFillName(t *testing.T) {
	tests := []struct {
		name string
		row  *Row
		want string
	}{
		{"keeps name", RowOf(FieldName, "P1", FieldDescription, "Setpoint"), "P1"},
		{"from description", RowOf(FieldDescription, "Supply air temp"), "SUPPLY_AIR_TEMP"},
		{"from register", RowOf(FieldRegister, "40001"), "REG_40001"},
		{"nothing to use", RowOf(FieldUnit, "°C"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fillName(tt.row)
			if got := tt.row.Get(FieldName); got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Rule Table Tests
// ============================================================================

func TestNormalizeLength(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1bit", "1bit"},
		{"0bit", "1bit"},
		{"2bit", "2bit"},
		{"3bit", "2bit"},
		{"5bit", "4bit"},
		{"8", "8bit"},
		{"12bit", "8bit"},
		{"16bit", "16bit"},
		{"32bit", "16bit"},
		{"word", "word"},
	}
	for _, tt := range tests {
		if got := NormalizeLength(tt.in); got != tt.want {
			t.Errorf("NormalizeLength(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRuleEngine_Permissions(t *testing.T) {
	e := NewRuleEngine(RuleTables{
		Permissions: []PermissionRule{
			{Categories: []SystemCategory{CategoryAlarm}, When: AccessReadOnly, Read: 1, Write: Keep},
			{Categories: []SystemCategory{CategoryCommand}, When: AccessAny, Read: 0, Write: 5},
			{Categories: []SystemCategory{CategoryCommand}, When: AccessWriteOnly, Read: Keep, Write: 6},
		},
	})

	tests := []struct {
		name      string
		row       *Row
		wantRead  int
		wantWrite int
	}{
		{"matching rule", RowOf(FieldSystemCategory, "ALARM", FieldRead, "4"), 1, 0},
		{"condition not met", RowOf(FieldSystemCategory, "ALARM", FieldRead, "3", FieldWrite, "6"), 3, 6},
		{"rules chain in order", RowOf(FieldSystemCategory, "COMMAND", FieldRead, "3", FieldWrite, "6"), 0, 6},
		{"other category untouched", RowOf(FieldSystemCategory, "STATUS", FieldRead, "4"), 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Apply([]*Row{tt.row})
			if r, w := tt.row.Int(FieldRead), tt.row.Int(FieldWrite); r != tt.wantRead || w != tt.wantWrite {
				t.Errorf("read/write = %d/%d, want %d/%d", r, w, tt.wantRead, tt.wantWrite)
			}
		})
	}
}

func TestRuleEngine_RangeDoesNotOverwrite(t *testing.T) {
	e := NewRuleEngine(RuleTables{
		Ranges: []RangeRule{{Categories: []SystemCategory{CategoryAlarm}, Min: 0, Max: 1}},
	})

	filled := RowOf(FieldSystemCategory, "ALARM", FieldName, "A")
	partial := RowOf(FieldSystemCategory, "ALARM", FieldName, "B", FieldMaxValue, "5")
	e.Apply([]*Row{filled, partial})

	if got := filled.Get(FieldMaxValue); got != "1" {
		t.Errorf("filled maxvalue = %q, want 1", got)
	}
	if got := partial.Get(FieldMaxValue); got != "5" {
		t.Errorf("partial maxvalue = %q, want 5", got)
	}
	if got := partial.Get(FieldMinValue); got != "" {
		t.Errorf("partial minvalue = %q, want empty", got)
	}
}

func TestRuleEngine_Length(t *testing.T) {
	e := NewRuleEngine(RuleTables{
		Length:        map[SystemCategory]string{CategoryAlarm: Length1Bit, CategoryStatus: ""},
		LengthDefault: LengthSigned16,
	})

	tests := []struct {
		name string
		row  *Row
		want string
	}{
		{"table entry", RowOf(FieldSystemCategory, "ALARM"), "1bit"},
		{"empty entry keeps source", RowOf(FieldSystemCategory, "STATUS", FieldLength, "32bit"), "32bit"},
		{"signed when negative", RowOf(FieldSystemCategory, "SET_POINT", FieldMinValue, "-10"), "s16"},
		{"unsigned otherwise", RowOf(FieldSystemCategory, "SET_POINT", FieldMinValue, "0"), "16bit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Apply([]*Row{tt.row})
			if got := tt.row.Get(FieldLength); got != tt.want {
				t.Errorf("length = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleEngine_SamplingViewUnitsAndTags(t *testing.T) {
	e := NewRuleEngine(RuleTables{
		Sampling:        map[SystemCategory]int{CategoryAlarm: 30},
		SamplingDefault: 60,
		View:            map[SystemCategory]string{CategoryStatus: "basic"},
		ViewDefault:     "simple",
		ValueLimit:      32767,
		Units:           []UnitRule{{NameContains: "TEMP", Unit: "°C"}},
		UnitMap:         map[string]string{"RPM": "rpm"},
		SetPointOffset:  0.1,
	})

	alarm := RowOf(FieldSystemCategory, "ALARM", FieldName, "A")
	status := RowOf(FieldSystemCategory, "STATUS", FieldName, "FAN", FieldUnit, "RPM", FieldMaxValue, "99999", FieldValue, "-40000")
	sp := RowOf(FieldSystemCategory, "SET_POINT", FieldName, "TEMP_SP")
	sys := RowOf(FieldSystemCategory, "SYSTEM", FieldName, "FW")
	e.Apply([]*Row{alarm, status, sp, sys})

	if got := alarm.Int(FieldSampling); got != 30 {
		t.Errorf("alarm sampling = %d, want 30", got)
	}
	if got := status.Int(FieldSampling); got != 60 {
		t.Errorf("status sampling = %d, want 60", got)
	}
	if got := status.Get(FieldView); got != "basic" {
		t.Errorf("status view = %q, want basic", got)
	}
	if got := alarm.Get(FieldView); got != "simple" {
		t.Errorf("alarm view = %q, want simple", got)
	}
	if got := status.Get(FieldMaxValue); got != "32767" {
		t.Errorf("clamped maxvalue = %q, want 32767", got)
	}
	if got := status.Get(FieldValue); got != "-32767" {
		t.Errorf("clamped value = %q, want -32767", got)
	}
	if got := status.Get(FieldUnit); got != "rpm" {
		t.Errorf("mapped unit = %q, want rpm", got)
	}
	if got := sp.Get(FieldUnit); got != "" {
		t.Errorf("unit mapped away = %q, want empty", got)
	}
	if got := sp.Get(FieldOffset); got != "0.1" {
		t.Errorf("set-point offset = %q, want 0.1", got)
	}
	if got := sys.Get(FieldTags); got != SystemTags {
		t.Errorf("system tags = %q, want %q", got, SystemTags)
	}
	if got := alarm.Get(FieldTags); got != DefaultTags {
		t.Errorf("tags = %q, want %q", got, DefaultTags)
	}
}

// ============================================================================
// L10n Tests
// ============================================================================

func TestBuildL10n(t *testing.T) {
	rules := L10nRules{
		DefaultLang: "es_ES",
		Languages: []Language{
			{Field: FieldDescription, Lang: "es_ES"},
			{Field: FieldDescription + "_2", Lang: "en_US"},
		},
		WithCategory: true,
	}

	r := RowOf(FieldDescription, "Temperatura <ida>", FieldDescription+"_2", "Supply temperature")
	want := `{"_type":"l10n","default_lang":"es_ES","translations":{` +
		`"es_ES":{"name":null,"_type":"languages","category":null,"description":"Temperatura <ida>"},` +
		`"en_US":{"name":null,"_type":"languages","category":null,"description":"Supply temperature"}}}`
	if got := BuildL10n(r, rules); got != want {
		t.Errorf("BuildL10n() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildL10n_NoDescription(t *testing.T) {
	got := BuildL10n(RowOf(FieldName, "X"), L10nRules{DefaultLang: "en_US"})
	if got != DefaultL10n {
		t.Errorf("BuildL10n() = %s, want %s", got, DefaultL10n)
	}
}
