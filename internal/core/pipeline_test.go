package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regmap/internal/logging"
)

func testBackend() Backend {
	return Backend{
		Key:   "test",
		Label: "Test",
		Header: HeaderRules{
			Mode:       HeaderKeywords,
			Match:      MatchExact,
			MinMatches: 3,
			Aliases: []Alias{
				{Field: FieldRegister, Variants: []string{"Address"}},
				{Field: FieldName, Variants: []string{"Name"}},
				{Field: FieldAccess, Variants: []string{"R/W"}},
				{Field: FieldUnit, Variants: []string{"Unit"}},
				{Field: FieldMinValue, Variants: []string{"Min"}},
				{Field: FieldMaxValue, Variants: []string{"Max"}},
				{Field: FieldDescription, Variants: []string{"Description"}},
			},
		},
		Extract: ExtractRules{NumericFields: []string{FieldMinValue, FieldMaxValue}},
		Merge:   MergeRules{Labels: true, BlankRegisterLabels: true},
		Classify: ClassifyRules{
			AlarmCategoryPrefix: "AL",
			SetPointPrefixes:    []string{"SP_"},
			SourceField:         FieldCategory,
			CategoryMap:         []CategoryMatch{{Pattern: "SONDAS", Category: CategoryAnalogInput}},
			AccessTable: []AccessClass{
				{Access: AccessReadWrite, Category: CategoryConfigParameter},
				{Access: AccessWriteOnly, Category: CategoryCommand},
			},
			AccessDefault: CategoryStatus,
		},
		Rules: RuleTables{
			Access: map[string]Access{
				LiteralRead:      {Read: 4},
				LiteralWrite:     {Write: 6},
				LiteralReadWrite: {Read: 3, Write: 6},
			},
			Sampling:        map[SystemCategory]int{CategoryAlarm: 30},
			SamplingDefault: 60,
			ViewDefault:     "simple",
			Ranges:          []RangeRule{{Categories: []SystemCategory{CategoryAlarm}, Min: 0, Max: 1}},
			Length:          map[SystemCategory]string{CategoryAlarm: Length1Bit},
			LengthDefault:   LengthSigned16,
			Masks:           true,
		},
	}
}

func testTable() RawTable {
	rows := [][]string{
		{"Register map", "", "", "", "", "", ""},
		{"", "", "", "", "", "", ""},
		{"Address", "Name", "R/W", "Unit", "Min", "Max", "Description"},
		{"", "ALARMAS", "", "", "", "", ""},
		{"101", "HP", "R", "", "", "", "High pressure"},
		{"102", "LP", "R", "", "", "", "Low pressure"},
		{"", "SONDAS", "", "", "", "", ""},
		{"200", "SENSOR", "R", "", "", "", "Sensor word"},
		{"201", "SENSOR_1", "R", "°C", "-50", "150", "Sensor 1"},
		{"202", "SENSOR_2", "R", "°C", "-50", "150", "Sensor 2"},
		{"", "GENERAL", "", "", "", "", ""},
		{"300", "SP_TEMP", "R/W", "°C", "0", "40", "Temperature set point"},
		{"301", "START", "W", "", "", "", "Start unit"},
		{"302", "START", "W", "", "", "", "Start unit again"},
		{"303", "", "R", "", "", "", ""},
	}
	return RawTable{Source: Provenance{File: "map.xlsx", Sheet: "Modbus"}, Rows: rows}
}

func runTest(t *testing.T, b Backend, tables ...RawTable) *Result {
	t.Helper()
	res, err := NewPipeline(b).Run(context.Background(), tables)
	require.NoError(t, err)
	return res
}

func byName(res *Result) map[string]Record {
	out := make(map[string]Record, len(res.Records))
	for _, r := range res.Records {
		out[r.Name] = r
	}
	return out
}

func TestPipeline_Run(t *testing.T) {
	res := runTest(t, testBackend(), testTable())
	require.Len(t, res.Records, 9)
	assert.Equal(t, "test", res.Backend)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, 2, res.Reports[0].HeaderRow)

	recs := byName(res)

	hp := recs["HP"]
	assert.Equal(t, CategoryAlarm, hp.SystemCategory)
	assert.Equal(t, "ALARMAS", hp.Category)
	assert.Equal(t, 30, hp.Sampling)
	assert.Equal(t, 4, hp.Read)
	assert.Equal(t, 0, hp.Write)
	assert.Equal(t, 1.0, hp.MaxValue)
	assert.Equal(t, Length1Bit, hp.Length)

	sensor := recs["SENSOR_1"]
	assert.Equal(t, CategoryAnalogInput, sensor.SystemCategory)
	assert.Equal(t, "0x1", sensor.Mask)
	assert.Equal(t, LengthS16, sensor.Length)
	assert.Equal(t, -50.0, sensor.MinValue)
	assert.Equal(t, "0x2", recs["SENSOR_2"].Mask)
	assert.Equal(t, "0x0", recs["SENSOR"].Mask)

	sp := recs["SP_TEMP"]
	assert.Equal(t, CategorySetPoint, sp.SystemCategory)
	assert.Equal(t, Length16Bit, sp.Length)
	assert.Equal(t, 3, sp.Read)
	assert.Equal(t, 6, sp.Write)

	assert.Equal(t, CategoryCommand, recs["START"].SystemCategory)
	assert.Contains(t, recs, "START_2")
	assert.Equal(t, "REG_303", recs["REG_303"].Name)

	for i, r := range res.Records {
		assert.Equal(t, i+1, r.ID)
		assert.Equal(t, "modbus", r.Type)
		assert.Equal(t, DefaultAlarm, r.Alarm)
	}
}

func TestPipeline_Properties(t *testing.T) {
	res := runTest(t, testBackend(), testTable())

	t.Run("schema completeness", func(t *testing.T) {
		for _, r := range res.Records {
			assert.Len(t, r.Values(), len(Columns))
			assert.Len(t, r.Strings(), len(Columns))
		}
	})

	t.Run("category closure", func(t *testing.T) {
		for _, r := range res.Records {
			assert.True(t, r.SystemCategory.Valid(), "record %s has category %q", r.Name, r.SystemCategory)
		}
	})

	t.Run("name uniqueness", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, r := range res.Records {
			key := strings.ToUpper(r.Name)
			assert.False(t, seen[key], "duplicate name %s", r.Name)
			seen[key] = true
		}
	})

	t.Run("mask range", func(t *testing.T) {
		for _, r := range res.Records {
			v, err := strconv.ParseUint(strings.TrimPrefix(r.Mask, "0x"), 16, 32)
			require.NoError(t, err, "mask %q", r.Mask)
			assert.LessOrEqual(t, v, uint64(0x8000))
			assert.True(t, v == 0 || v&(v-1) == 0, "mask %s is not a single bit", r.Mask)
		}
	})

	t.Run("idempotence", func(t *testing.T) {
		again := runTest(t, testBackend(), testTable())
		assert.Equal(t, res.Records, again.Records)
	})
}

func TestPipeline_NothingExtracted(t *testing.T) {
	table := RawTable{Rows: [][]string{{"just", "some", "text"}}}
	res, err := NewPipeline(testBackend()).Run(context.Background(), []RawTable{table})

	require.ErrorIs(t, err, ErrNothingExtracted)
	require.NotNil(t, res)
	require.Len(t, res.Reports, 1)
	assert.True(t, res.Reports[0].Skipped)
	assert.Equal(t, ErrNoHeader.Error(), res.Reports[0].Reason)
}

func TestPipeline_SkippedTableDoesNotAbort(t *testing.T) {
	bad := RawTable{Source: Provenance{Sheet: "Notes"}, Rows: [][]string{{"nothing here"}}}
	res := runTest(t, testBackend(), bad, testTable())

	require.Len(t, res.Reports, 2)
	assert.True(t, res.Reports[0].Skipped)
	assert.False(t, res.Reports[1].Skipped)
	assert.Equal(t, 1, res.Skipped())
	assert.NotEmpty(t, res.Records)
}

func TestPipeline_DropsRowsWithoutRegisterOrName(t *testing.T) {
	table := RawTable{Rows: [][]string{
		{"Address", "Name", "R/W", "Unit", "Min", "Max", "Description"},
		{"300", "SP_TEMP", "R/W", "°C", "0", "40", "Temperature set point"},
		{"", "", "", "", "", "", "orphan note without register or name"},
		{"400", "", "R", "", "", "", "Outdoor temperature"},
		{"401", "", "R", "", "", "", ""},
	}}
	b := testBackend()
	b.Merge = MergeRules{}

	t.Run("derived names", func(t *testing.T) {
		recs := byName(runTest(t, b, table))
		require.Len(t, recs, 3)
		assert.NotContains(t, recs, "ORPHAN_NOTE_WITHOUT_REGISTER_OR_NAME")
		assert.Equal(t, "400", recs["OUTDOOR_TEMPERATURE"].Register)
		assert.Equal(t, "401", recs["REG_401"].Register)
	})

	t.Run("names required", func(t *testing.T) {
		strict := b
		strict.Rules.RequireName = true
		recs := byName(runTest(t, strict, table))
		require.Len(t, recs, 1)
		assert.Contains(t, recs, "SP_TEMP")
	})
}

func TestPipeline_TablePanicIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	ctx := logging.ContextWith(context.Background(), "conversion_id", "c-1")

	p := NewPipeline(testBackend())
	p.extractor = nil

	res, err := p.Run(ctx, []RawTable{testTable()})
	require.ErrorIs(t, err, ErrNothingExtracted)
	require.Len(t, res.Reports, 1)
	assert.True(t, res.Reports[0].Skipped)
	assert.Contains(t, res.Reports[0].Reason, "internal error")
	assert.Contains(t, buf.String(), "table processing panicked")
	assert.Contains(t, buf.String(), "conversion_id=c-1")
}

func TestPipeline_StagePanicFailsRun(t *testing.T) {
	p := NewPipeline(testBackend())
	p.classifier = nil

	res, err := p.Run(context.Background(), []RawTable{testTable()})
	require.ErrorIs(t, err, ErrStageFailed)
	require.NotNil(t, res)
	assert.Empty(t, res.Records)
	assert.Len(t, res.Reports, 1)
}

func TestPipeline_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(testBackend()).Run(ctx, []RawTable{testTable()})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPipeline_PreferredSheets(t *testing.T) {
	b := testBackend()
	b.PreferredSheets = []string{"Modbus"}

	other := testTable()
	other.Source.Sheet = "Legacy"
	other.Rows = append([][]string(nil), other.Rows[:3]...)
	other.Rows = append(other.Rows, []string{"999", "OLD", "R", "", "", "", "Old"})

	res := runTest(t, b, other, testTable())
	require.Len(t, res.Reports, 1)
	assert.NotContains(t, byName(res), "OLD")

	t.Run("contains match", func(t *testing.T) {
		b.PreferredSheets = []string{"MOD"}
		res := runTest(t, b, other, testTable())
		require.Len(t, res.Reports, 1)
	})

	t.Run("falls back to first sheets", func(t *testing.T) {
		b.PreferredSheets = []string{"Parameters"}
		res := runTest(t, b, other, testTable())
		require.Len(t, res.Reports, 1)
		assert.Contains(t, byName(res), "OLD")
	})
}

func TestPipeline_SectionsAndInheritedHeader(t *testing.T) {
	b := testBackend()
	b.Merge = MergeRules{}
	b.InheritHeader = true
	b.Sections = []Alias{
		{Field: "ALARMS", Variants: []string{"Alarms"}},
		{Field: "SET POINT", Variants: []string{"Set point", "SP"}},
	}
	b.Classify = ClassifyRules{
		SourceField: FieldSection,
		CategoryMap: []CategoryMatch{
			{Pattern: "ALARMS", Category: CategoryAlarm},
			{Pattern: "SET POINT", Category: CategorySetPoint},
		},
	}

	header := []string{"Address", "Name", "R/W", "Unit", "Min", "Max", "Description"}
	tables := []RawTable{
		{Rows: [][]string{{"Preface"}, {"text"}}},
		{Rows: [][]string{{"Alarms"}}},
		{Rows: [][]string{header, {"1", "HA", "R", "", "", "", "High alarm"}}},
		{Rows: [][]string{{"2", "LA", "R", "", "", "", "Low alarm"}}},
		{Rows: [][]string{{"Set", "point"}, header, {"10", "SET1", "R/W", "", "0", "9", "Set point"}}},
	}

	res := runTest(t, b, tables...)
	recs := byName(res)
	require.Len(t, res.Records, 3)
	assert.Equal(t, CategoryAlarm, recs["HA"].SystemCategory)
	assert.Equal(t, CategoryAlarm, recs["LA"].SystemCategory)
	assert.Equal(t, CategorySetPoint, recs["SET1"].SystemCategory)
	assert.Equal(t, -1, res.Reports[1].HeaderRow)
}

func TestPipeline_ConcatTables(t *testing.T) {
	b := testBackend()
	b.ConcatTables = true

	full := testTable()
	first := RawTable{Source: full.Source, Rows: full.Rows[:6]}
	second := RawTable{Source: full.Source, Rows: append([][]string{full.Rows[2]}, full.Rows[6:]...)}

	res := runTest(t, b, first, second)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, runTest(t, testBackend(), full).Records, res.Records)
}
