package core

import "testing"

func TestClassifier_Precedence(t *testing.T) {
	c := NewClassifier(ClassifyRules{
		AlarmCategoryPrefix: "AL",
		AlarmNameMarkers:    []string{"Al"},
		CommandPrefixes:     []string{"CMD_"},
		ConfigPrefixes:      []string{"CFG_"},
		SetPointPrefixes:    []string{"SP_"},
		NameContains: []CategoryMatch{
			{Pattern: "OUTPUT", Contains: true, Category: CategoryDigitalOutput},
		},
		SourceField: FieldCategory,
		CategoryMap: []CategoryMatch{
			{Pattern: "SONDAS", Category: CategoryAnalogInput},
			{Pattern: "ENTRADA", Contains: true, Category: CategoryDigitalInput},
		},
		Fallback: CategoryDefault,
	})

	tests := []struct {
		name     string
		row      *Row
		want     SystemCategory
		wantKeep bool
	}{
		{"alarm category beats set-point name", RowOf(FieldCategory, "ALARMS_GENERAL", FieldName, "SP_TEMP"), CategoryAlarm, true},
		{"alarm marker in name", RowOf(FieldName, "HighTempAl"), CategoryAlarm, true},
		{"alarm marker is case-sensitive", RowOf(FieldName, "ALL_ON"), CategoryDefault, true},
		{"command prefix", RowOf(FieldName, "CMD_START"), CategoryCommand, true},
		{"config prefix", RowOf(FieldName, "cfg_mode"), CategoryConfigParameter, true},
		{"set-point prefix", RowOf(FieldName, "SP_TEMP"), CategorySetPoint, true},
		{"name substring", RowOf(FieldName, "FAN_OUTPUT_1"), CategoryDigitalOutput, true},
		{"category exact", RowOf(FieldCategory, "sondas"), CategoryAnalogInput, true},
		{"category contains", RowOf(FieldCategory, "ENTRADAS DIGITALES"), CategoryDigitalInput, true},
		{"canonical category text", RowOf(FieldCategory, "status"), CategoryStatus, true},
		{"empty marker falls back", RowOf(FieldCategory, "nan"), CategoryDefault, true},
		{"unknown text falls back", RowOf(FieldCategory, "MISC"), CategoryDefault, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := c.Classify(tt.row)
			if got != tt.want || keep != tt.wantKeep {
				t.Errorf("Classify() = (%q, %v), want (%q, %v)", got, keep, tt.want, tt.wantKeep)
			}
		})
	}
}

func TestClassifier_AccessTable(t *testing.T) {
	c := NewClassifier(ClassifyRules{
		AccessTable: []AccessClass{
			{Types: []string{"BOOL"}, Access: AccessReadOnly, Category: CategoryDigitalInput},
			{Access: AccessReadWrite, Category: CategoryConfigParameter},
			{Access: AccessWriteOnly, Category: CategoryCommand},
		},
		AccessDefault: CategoryStatus,
	})

	tests := []struct {
		name string
		row  *Row
		want SystemCategory
	}{
		{"typed read-only", RowOf(FieldDataType, "bool", FieldRead, "4"), CategoryDigitalInput},
		{"untyped read-only", RowOf(FieldDataType, "INT", FieldRead, "4"), CategoryStatus},
		{"read-write", RowOf(FieldRead, "3", FieldWrite, "6"), CategoryConfigParameter},
		{"write-only", RowOf(FieldWrite, "6"), CategoryCommand},
		{"no access", RowOf(FieldName, "X"), CategoryStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := c.Classify(tt.row)
			if !keep || got != tt.want {
				t.Errorf("Classify() = (%q, %v), want (%q, true)", got, keep, tt.want)
			}
		})
	}
}

func TestClassifier_DropAndDiscard(t *testing.T) {
	c := NewClassifier(ClassifyRules{
		SourceField: FieldSection,
		Drop:        []string{"CLOCK"},
		CategoryMap: []CategoryMatch{{Pattern: "ALARMS", Category: CategoryAlarm}},
	})

	rows := []*Row{
		RowOf(FieldSection, "CLOCK", FieldName, "HOUR"),
		RowOf(FieldSection, "ALARMS", FieldName, "HA", FieldCategory, "sensor"),
		RowOf(FieldSection, "MISC", FieldName, "X"),
	}
	got := c.Apply(rows)
	if len(got) != 1 {
		t.Fatalf("Apply() kept %d rows, want 1", len(got))
	}
	if cat := got[0].Category(); cat != CategoryAlarm {
		t.Errorf("system_category = %q, want ALARM", cat)
	}
	if cat := got[0].Get(FieldCategory); cat != "SENSOR" {
		t.Errorf("category = %q, want SENSOR", cat)
	}
}
