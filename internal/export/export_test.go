package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/regmap/internal/core"
)

func sampleRecords() []core.Record {
	return []core.Record{
		{ID: 1, Register: "40001", Name: "SP_TEMP", SystemCategory: core.CategorySetPoint, MinValue: -50, MaxValue: 99.5, Mask: "0x0", Unit: "°C"},
		{ID: 2, Register: "40002", Name: "AL_HIGH", SystemCategory: core.CategoryAlarm, Mask: "0x1", Description: "<high> & hot"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"xlsx", FormatXLSX, false},
		{" CSV ", FormatCSV, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		input string
		f     Format
		want  string
	}{
		{"map.json", FormatXLSX, "processed_map.xlsx"},
		{"/uploads/Cefa Regs.v2.xlsx", FormatXLSX, "processed_Cefa Regs.v2.xlsx"},
		{"map.csv", FormatCSV, "processed_map.csv"},
		{"", FormatJSON, "processed_output.json"},
	}
	for _, tt := range tests {
		if got := FileName(tt.input, tt.f); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.input, tt.f, got, tt.want)
		}
	}
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.Columns, rows[0])
	assert.Equal(t, "SP_TEMP", rows[1][2])
	assert.Equal(t, "SET_POINT", rows[1][4])

	// minvalue is stored as a number
	typ, err := f.GetCellType(SheetName, "K2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(core.Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,40001,SP_TEMP,"))
	assert.Contains(t, lines[1], ",-50,99.5,")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleRecords()))
	assert.Contains(t, buf.String(), `"<high> & hot"`)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Len(t, got[0], len(core.Columns))
	assert.Equal(t, "ALARM", got[1]["system_category"])

	buf.Reset()
	require.NoError(t, JSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
