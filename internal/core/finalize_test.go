package core

import "testing"

func TestFinalizer_Finalize(t *testing.T) {
	f := NewFinalizer(map[string]string{FieldSystemCategory: string(CategoryStatus), FieldLength: Length16Bit})

	rows := []*Row{
		RowOf(FieldUnit, "°C"),
		RowOf(FieldRegister, "10", FieldName, "A", FieldDescription+"_2", "second", FieldDescription+"_1", "first"),
		RowOf(FieldName, "B", FieldSystemCategory, "ALARM", FieldLength, Length1Bit, FieldCategory, "grupo"),
	}
	recs := f.Finalize(rows)
	if len(recs) != 2 {
		t.Fatalf("Finalize() returned %d records, want 2", len(recs))
	}

	a, b := recs[0], recs[1]
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d,%d, want 1,2", a.ID, b.ID)
	}
	if a.Description != "first" {
		t.Errorf("description = %q, want %q", a.Description, "first")
	}
	if a.SystemCategory != CategoryStatus {
		t.Errorf("default system_category = %q, want STATUS", a.SystemCategory)
	}
	if a.Length != Length16Bit {
		t.Errorf("default length = %q, want %q", a.Length, Length16Bit)
	}
	if a.Mask != "0x0" || a.Type != "modbus" || a.Metadata != DefaultMetadata || a.L10n != DefaultL10n {
		t.Errorf("base defaults not applied: %+v", a)
	}
	if b.Length != Length1Bit {
		t.Errorf("length = %q, want %q", b.Length, Length1Bit)
	}
	if b.Category != "GRUPO" {
		t.Errorf("category = %q, want GRUPO", b.Category)
	}
	if b.Register != "" {
		t.Errorf("register = %q, want empty", b.Register)
	}
}

func TestRecord_Strings(t *testing.T) {
	r := Record{ID: 3, Register: "40001", MinValue: -1.5, MaxValue: 100, Mask: "0x4"}
	got := r.Strings()
	if len(got) != len(Columns) {
		t.Fatalf("Strings() has %d cells, want %d", len(got), len(Columns))
	}
	checks := map[string]string{
		FieldID:       "3",
		FieldRegister: "40001",
		FieldMinValue: "-1.5",
		FieldMaxValue: "100",
		FieldMask:     "0x4",
	}
	for i, col := range Columns {
		if want, ok := checks[col]; ok && got[i] != want {
			t.Errorf("%s = %q, want %q", col, got[i], want)
		}
	}
}
