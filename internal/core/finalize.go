package core

import (
	"sort"
	"strconv"
	"strings"
)

// baseDefaults fill output columns no backend default covers.
var baseDefaults = map[string]string{
	FieldAddition: "0",
	FieldMask:     "0x0",
	FieldValue:    "0",
	FieldAlarm:    DefaultAlarm,
	FieldMetadata: DefaultMetadata,
	FieldL10n:     DefaultL10n,
	FieldTags:     DefaultTags,
	FieldType:     "modbus",
}

// Finalizer turns pending rows into canonical records.
type Finalizer struct {
	defaults map[string]string
}

// NewFinalizer merges backend defaults over the base defaults.
func NewFinalizer(defaults map[string]string) *Finalizer {
	merged := make(map[string]string, len(baseDefaults)+len(defaults))
	for k, v := range baseDefaults {
		merged[k] = v
	}
	for k, v := range defaults {
		merged[k] = v
	}
	return &Finalizer{defaults: merged}
}

// Finalize drops rows with neither register nor name, fills every column and
// numbers the records 1..N in row order.
func (f *Finalizer) Finalize(rows []*Row) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if !r.Has(FieldRegister) && !r.Has(FieldName) {
			continue
		}
		if !r.Has(FieldDescription) {
			r.Set(FieldDescription, Truncate(extraDescription(r), DescriptionLimit))
		}
		rec := f.record(r)
		rec.ID = len(out) + 1
		out = append(out, rec)
	}
	return out
}

// extraDescription returns the first populated description_N column, used
// when unmapped header cells were kept as numbered descriptions.
func extraDescription(r *Row) string {
	var extra []string
	prefix := FieldDescription + "_"
	for _, k := range r.Fields() {
		if n, ok := strings.CutPrefix(k, prefix); ok {
			if _, err := strconv.Atoi(n); err == nil {
				extra = append(extra, k)
			}
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		a, _ := strconv.Atoi(extra[i][len(prefix):])
		b, _ := strconv.Atoi(extra[j][len(prefix):])
		return a < b
	})
	for _, k := range extra {
		if v := r.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func (f *Finalizer) get(r *Row, field string) string {
	if v := r.Get(field); v != "" {
		return v
	}
	return f.defaults[field]
}

func (f *Finalizer) num(r *Row, field string) float64 {
	v, _ := ParseNumber(f.get(r, field))
	return v
}

func (f *Finalizer) integer(r *Row, field string) int {
	return int(f.num(r, field))
}

func (f *Finalizer) record(r *Row) Record {
	cat := r.Category()
	if cat == "" {
		cat = SystemCategory(f.defaults[FieldSystemCategory])
	}
	return Record{
		Register:                   f.get(r, FieldRegister),
		Name:                       f.get(r, FieldName),
		Description:                f.get(r, FieldDescription),
		SystemCategory:             cat,
		Category:                   strings.ToUpper(f.get(r, FieldCategory)),
		View:                       f.get(r, FieldView),
		Sampling:                   f.integer(r, FieldSampling),
		Read:                       f.integer(r, FieldRead),
		Write:                      f.integer(r, FieldWrite),
		MinValue:                   f.num(r, FieldMinValue),
		MaxValue:                   f.num(r, FieldMaxValue),
		Unit:                       f.get(r, FieldUnit),
		Offset:                     f.num(r, FieldOffset),
		Addition:                   f.num(r, FieldAddition),
		Mask:                       f.get(r, FieldMask),
		Value:                      f.get(r, FieldValue),
		Length:                     f.get(r, FieldLength),
		GeneralIcon:                f.get(r, FieldGeneralIcon),
		Alarm:                      f.get(r, FieldAlarm),
		Metadata:                   f.get(r, FieldMetadata),
		L10n:                       f.get(r, FieldL10n),
		Tags:                       f.get(r, FieldTags),
		Type:                       f.get(r, FieldType),
		ParameterWriteBytePosition: f.integer(r, FieldWriteBytePos),
		MQTT:                       f.get(r, FieldMQTT),
		JSON:                       f.get(r, FieldJSON),
		CurrentValue:               f.num(r, FieldCurrentValue),
		CurrentErrorStatus:         f.integer(r, FieldCurrentError),
		Notes:                      f.get(r, FieldNotes),
	}
}
