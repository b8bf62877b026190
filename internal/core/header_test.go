package core

import (
	"errors"
	"testing"
)

func keywordDetector() *HeaderDetector {
	return NewHeaderDetector(HeaderRules{
		Mode:  HeaderKeywords,
		Match: MatchExact,
		Aliases: []Alias{
			{Field: FieldRegister, Variants: []string{"Address", "Dirección"}},
			{Field: FieldName, Variants: []string{"Name"}},
			{Field: FieldUnit, Variants: []string{"Unit"}},
			{Field: FieldMinValue, Variants: []string{"Min"}},
			{Field: FieldMaxValue, Variants: []string{"Max"}},
		},
	})
}

func TestHeaderDetector_DetectAfterTitleRows(t *testing.T) {
	grid := [][]string{
		{"", "", "", "", ""},
		{"Modbus map v2", "", "", "", ""},
		{"Address", "Name", "Unit", "Min", "Max"},
		{"101", "TEMP", "°C", "0", "100"},
	}

	h, err := keywordDetector().Detect(grid)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if h.Row != 2 {
		t.Errorf("Detect().Row = %d, want 2", h.Row)
	}
	want := map[int]string{0: FieldRegister, 1: FieldName, 2: FieldUnit, 3: FieldMinValue, 4: FieldMaxValue}
	for c, f := range want {
		if got := h.Field(c); got != f {
			t.Errorf("Field(%d) = %q, want %q", c, got, f)
		}
	}
}

func TestHeaderDetector_NoHeader(t *testing.T) {
	grid := [][]string{{"a", "b"}, {"1", "2"}}
	_, err := keywordDetector().Detect(grid)
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("Detect() error = %v, want ErrNoHeader", err)
	}
}

func TestHeaderDetector_MatchCell(t *testing.T) {
	exact := keywordDetector()
	substr := NewHeaderDetector(HeaderRules{
		Match:   MatchSubstring,
		Aliases: []Alias{{Field: FieldRegister, Variants: []string{"direccion"}}},
	})

	tests := []struct {
		name   string
		d      *HeaderDetector
		cell   string
		want   string
		wantOK bool
	}{
		{"exact accent folded", exact, "DIRECCIÓN", FieldRegister, true},
		{"exact rejects longer text", exact, "Address (hex)", "", false},
		{"substring accepts longer text", substr, "Dirección Modbus", FieldRegister, true},
		{"blank", exact, "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.d.MatchCell(tt.cell)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MatchCell(%q) = (%q, %v), want (%q, %v)", tt.cell, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHeaderDetector_MapColumnsDuplicatesAndUnmapped(t *testing.T) {
	d := NewHeaderDetector(HeaderRules{
		Match:    MatchExact,
		Unmapped: KeepAsDescription,
		Aliases: []Alias{
			{Field: FieldName, Variants: []string{"Name", "Variable"}},
		},
	})

	cols := d.MapColumns([]string{"Name", "Variable", "Comment", ""})
	if cols[0] != FieldName {
		t.Errorf("cols[0] = %q, want %q", cols[0], FieldName)
	}
	if cols[1] != FieldDescription+"_1" {
		t.Errorf("cols[1] = %q, want %q", cols[1], FieldDescription+"_1")
	}
	if cols[2] != FieldDescription+"_2" {
		t.Errorf("cols[2] = %q, want %q", cols[2], FieldDescription+"_2")
	}
	if _, ok := cols[3]; ok {
		t.Errorf("blank header cell was mapped to %q", cols[3])
	}
}

func TestHeaderDetector_Fixed(t *testing.T) {
	d := NewHeaderDetector(HeaderRules{
		Mode:     HeaderFixed,
		Match:    MatchExact,
		FixedRow: 1,
		Aliases:  []Alias{{Field: FieldName, Variants: []string{"Name"}}},
	})

	h, err := d.Detect([][]string{{"Name"}, {"Name"}, {"X"}})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if h.Row != 1 {
		t.Errorf("Detect().Row = %d, want 1", h.Row)
	}

	if _, err := d.Detect([][]string{{"Name"}}); !errors.Is(err, ErrNoHeader) {
		t.Errorf("Detect() on short grid error = %v, want ErrNoHeader", err)
	}
}

func TestHeaderDetector_FindAllStacked(t *testing.T) {
	grid := [][]string{
		{"Address", "Name", "Unit", "Min", "Max"},
		{"1", "A", "", "", ""},
		{"", "", "", "", ""},
		{"Address", "Name", "Unit", "Min", "Max"},
		{"2", "B", "", "", ""},
	}
	hs, err := keywordDetector().FindAll(grid)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("FindAll() found %d headers, want 2", len(hs))
	}
	if hs[0].Row != 0 || hs[1].Row != 3 {
		t.Errorf("FindAll() rows = %d,%d, want 0,3", hs[0].Row, hs[1].Row)
	}
}

func TestHeaderRules_SearchRows(t *testing.T) {
	tests := []struct {
		rows  int
		total int
		want  int
	}{
		{0, 100, DefaultHeaderSearchRows},
		{0, 5, 5},
		{-1, 100, 100},
		{3, 100, 3},
	}
	for _, tt := range tests {
		h := HeaderRules{SearchRows: tt.rows}
		if got := h.searchRows(tt.total); got != tt.want {
			t.Errorf("searchRows(%d) with SearchRows=%d = %d, want %d", tt.total, tt.rows, got, tt.want)
		}
	}
}
