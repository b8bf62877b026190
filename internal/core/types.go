package core

import (
	"fmt"
	"strconv"
	"strings"
)

// SystemCategory is the canonical semantic class of a device variable.
type SystemCategory string

const (
	CategoryAlarm           SystemCategory = "ALARM"
	CategorySetPoint        SystemCategory = "SET_POINT"
	CategoryConfigParameter SystemCategory = "CONFIG_PARAMETER"
	CategoryCommand         SystemCategory = "COMMAND"
	CategoryStatus          SystemCategory = "STATUS"
	CategoryAnalogInput     SystemCategory = "ANALOG_INPUT"
	CategoryAnalogOutput    SystemCategory = "ANALOG_OUTPUT"
	CategoryDigitalInput    SystemCategory = "DIGITAL_INPUT"
	CategoryDigitalOutput   SystemCategory = "DIGITAL_OUTPUT"
	CategorySerialOutput    SystemCategory = "SERIAL_OUTPUT"
	CategorySystem          SystemCategory = "SYSTEM"
	CategoryDefault         SystemCategory = "DEFAULT"
)

// SystemCategories lists every valid SystemCategory in declaration order.
var SystemCategories = []SystemCategory{
	CategoryAlarm,
	CategorySetPoint,
	CategoryConfigParameter,
	CategoryCommand,
	CategoryStatus,
	CategoryAnalogInput,
	CategoryAnalogOutput,
	CategoryDigitalInput,
	CategoryDigitalOutput,
	CategorySerialOutput,
	CategorySystem,
	CategoryDefault,
}

// Valid reports whether c is a member of the canonical enum.
func (c SystemCategory) Valid() bool {
	for _, v := range SystemCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseSystemCategory accepts canonical names case-insensitively.
func ParseSystemCategory(s string) (SystemCategory, bool) {
	c := SystemCategory(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Working-row field names. The canonical ones double as output column names.
const (
	FieldID             = "id"
	FieldRegister       = "register"
	FieldName           = "name"
	FieldDescription    = "description"
	FieldSystemCategory = "system_category"
	FieldCategory       = "category"
	FieldView           = "view"
	FieldSampling       = "sampling"
	FieldRead           = "read"
	FieldWrite          = "write"
	FieldMinValue       = "minvalue"
	FieldMaxValue       = "maxvalue"
	FieldUnit           = "unit"
	FieldOffset         = "offset"
	FieldAddition       = "addition"
	FieldMask           = "mask"
	FieldValue          = "value"
	FieldLength         = "length"
	FieldGeneralIcon    = "general_icon"
	FieldAlarm          = "alarm"
	FieldMetadata       = "metadata"
	FieldL10n           = "l10n"
	FieldTags           = "tags"
	FieldType           = "type"
	FieldWriteBytePos   = "parameter_write_byte_position"
	FieldMQTT           = "mqtt"
	FieldJSON           = "json"
	FieldCurrentValue   = "current_value"
	FieldCurrentError   = "current_error_status"
	FieldNotes          = "notes"

	// Source-only fields consumed by the pipeline and never emitted.
	FieldScope         = "scope"
	FieldState         = "state"
	FieldAccess        = "access"
	FieldDataType      = "data_type"
	FieldSection       = "section"
	FieldGroups        = "groups"
	FieldDimension     = "dimension"
	FieldReadRegister  = "read_register"
	FieldWriteRegister = "write_register"
	FieldDecimal       = "dec"
	FieldRawCategory   = "raw_category"
	FieldStep          = "step"
)

// Columns is the canonical output column order.
var Columns = []string{
	FieldID, FieldRegister, FieldName, FieldDescription, FieldSystemCategory,
	FieldCategory, FieldView, FieldSampling, FieldRead, FieldWrite,
	FieldMinValue, FieldMaxValue, FieldUnit, FieldOffset, FieldAddition,
	FieldMask, FieldValue, FieldLength, FieldGeneralIcon, FieldAlarm,
	FieldMetadata, FieldL10n, FieldTags, FieldType, FieldWriteBytePos,
	FieldMQTT, FieldJSON, FieldCurrentValue, FieldCurrentError, FieldNotes,
}

// Provenance locates a raw table inside its source document.
// It is used for logging and reports only.
type Provenance struct {
	File  string    `json:"file,omitempty"`
	Sheet string    `json:"sheet,omitempty"`
	Page  int       `json:"page,omitempty"`
	BBox  []float64 `json:"bbox,omitempty"`
	Row   int       `json:"row,omitempty"`
}

func (p Provenance) String() string {
	var parts []string
	if p.File != "" {
		parts = append(parts, p.File)
	}
	if p.Sheet != "" {
		parts = append(parts, "sheet="+p.Sheet)
	}
	if p.Page > 0 {
		parts = append(parts, "page="+strconv.Itoa(p.Page))
	}
	if p.Row > 0 {
		parts = append(parts, "row="+strconv.Itoa(p.Row))
	}
	if len(parts) == 0 {
		return "<unknown>"
	}
	return strings.Join(parts, " ")
}

// RawTable is a rectangular grid of text cells as produced by a table
// extractor. Empty strings stand for missing cells.
type RawTable struct {
	Source Provenance `json:"source"`
	Rows   [][]string `json:"rows"`
}

// Row is a pending record: a loosely typed bag of fields accumulated while the
// pipeline passes run. It only becomes a Record in the finalizer.
type Row struct {
	fields map[string]string
	Source Provenance
}

// NewRow returns an empty row tagged with its source location.
func NewRow(src Provenance) *Row {
	return &Row{fields: make(map[string]string), Source: src}
}

// RowOf builds a row from field/value pairs. Used mostly by tests.
func RowOf(kv ...string) *Row {
	r := NewRow(Provenance{})
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Get returns the trimmed value of a field, or "" when absent.
func (r *Row) Get(field string) string {
	return r.fields[field]
}

// Set stores a trimmed value. Setting "" clears the field.
func (r *Row) Set(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(r.fields, field)
		return
	}
	r.fields[field] = value
}

// SetInt stores an integer value.
func (r *Row) SetInt(field string, v int) {
	r.fields[field] = strconv.Itoa(v)
}

// SetFloat stores a float using the shortest representation.
func (r *Row) SetFloat(field string, v float64) {
	r.fields[field] = strconv.FormatFloat(v, 'f', -1, 64)
}

// Has reports whether the field holds a non-blank value.
func (r *Row) Has(field string) bool {
	return r.fields[field] != ""
}

// Float parses the field as a number.
func (r *Row) Float(field string) (float64, bool) {
	return ParseNumber(r.fields[field])
}

// Int parses the field as an integer, returning 0 when it is not numeric.
func (r *Row) Int(field string) int {
	f, ok := r.Float(field)
	if !ok {
		return 0
	}
	return int(f)
}

// Category returns the system category assigned so far.
func (r *Row) Category() SystemCategory {
	return SystemCategory(r.fields[FieldSystemCategory])
}

// Fields returns the names of all populated fields.
func (r *Row) Fields() []string {
	out := make([]string, 0, len(r.fields))
	for k := range r.fields {
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	c := NewRow(r.Source)
	for k, v := range r.fields {
		c.fields[k] = v
	}
	return c
}

func (r *Row) String() string {
	return fmt.Sprintf("row{register=%q name=%q}", r.Get(FieldRegister), r.Get(FieldName))
}

// Record is one canonical output row. Field order follows Columns.
type Record struct {
	ID                         int            `json:"id"`
	Register                   string         `json:"register"`
	Name                       string         `json:"name"`
	Description                string         `json:"description"`
	SystemCategory             SystemCategory `json:"system_category"`
	Category                   string         `json:"category"`
	View                       string         `json:"view"`
	Sampling                   int            `json:"sampling"`
	Read                       int            `json:"read"`
	Write                      int            `json:"write"`
	MinValue                   float64        `json:"minvalue"`
	MaxValue                   float64        `json:"maxvalue"`
	Unit                       string         `json:"unit"`
	Offset                     float64        `json:"offset"`
	Addition                   float64        `json:"addition"`
	Mask                       string         `json:"mask"`
	Value                      string         `json:"value"`
	Length                     string         `json:"length"`
	GeneralIcon                string         `json:"general_icon"`
	Alarm                      string         `json:"alarm"`
	Metadata                   string         `json:"metadata"`
	L10n                       string         `json:"l10n"`
	Tags                       string         `json:"tags"`
	Type                       string         `json:"type"`
	ParameterWriteBytePosition int            `json:"parameter_write_byte_position"`
	MQTT                       string         `json:"mqtt"`
	JSON                       string         `json:"json"`
	CurrentValue               float64        `json:"current_value"`
	CurrentErrorStatus         int            `json:"current_error_status"`
	Notes                      string         `json:"notes"`
}

// Values returns the record cells in canonical column order. Numbers stay
// numeric so spreadsheet writers keep their cell types.
func (r Record) Values() []any {
	return []any{
		r.ID, r.Register, r.Name, r.Description, string(r.SystemCategory),
		r.Category, r.View, r.Sampling, r.Read, r.Write,
		r.MinValue, r.MaxValue, r.Unit, r.Offset, r.Addition,
		r.Mask, r.Value, r.Length, r.GeneralIcon, r.Alarm,
		r.Metadata, r.L10n, r.Tags, r.Type, r.ParameterWriteBytePosition,
		r.MQTT, r.JSON, r.CurrentValue, r.CurrentErrorStatus, r.Notes,
	}
}

// Strings returns the record cells formatted as text in canonical order.
func (r Record) Strings() []string {
	vals := r.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case string:
			out[i] = x
		case int:
			out[i] = strconv.Itoa(x)
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

// TableReport describes what happened to one raw table during a run.
type TableReport struct {
	Source    Provenance `json:"source"`
	HeaderRow int        `json:"header_row"`
	Rows      int        `json:"rows"`
	Skipped   bool       `json:"skipped"`
	Reason    string     `json:"reason,omitempty"`
}

// Result is the outcome of one pipeline run over a document.
type Result struct {
	Backend string        `json:"backend"`
	Records []Record      `json:"records"`
	Reports []TableReport `json:"reports"`
}

// Skipped returns the number of tables that produced no rows.
func (r *Result) Skipped() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.Skipped {
			n++
		}
	}
	return n
}
