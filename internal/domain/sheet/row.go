// Package sheet models the raw, untyped side of the data layer: named sheets,
// their ordered rows, row identity keys and the keyed merge applied during
// delta sync.
//
// Rows stay untyped only up to the aggregation boundary. Everything past it
// works with the typed entities of the report package.
package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

// Field is one column label with its cell value.
// Values are string, json.Number, bool, nil, or json.RawMessage for nested
// structures the sheet should never contain.
type Field struct {
	Label string
	Value any
}

// Row is an ordered label → value mapping as received from a sheet.
// Column order is preserved through storage and serialization.
type Row struct {
	fields []Field
}

// NewRow builds a row from fields. A repeated label overwrites the earlier
// value in place.
func NewRow(fields ...Field) Row {
	var r Row
	for _, f := range fields {
		r = r.With(f.Label, f.Value)
	}
	return r
}

// RowOf builds a row from alternating label/value arguments.
// It panics on an odd count or a non-string label; it is meant for literals.
func RowOf(kv ...any) Row {
	if len(kv)%2 != 0 {
		panic("sheet.RowOf: odd number of arguments")
	}
	fields := make([]Field, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		label, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("sheet.RowOf: label %v is not a string", kv[i]))
		}
		fields = append(fields, Field{Label: label, Value: kv[i+1]})
	}
	return NewRow(fields...)
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the row's fields in column order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Labels returns the column labels in order.
func (r Row) Labels() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Label
	}
	return out
}

// Get returns the value stored under label.
func (r Row) Get(label string) (any, bool) {
	for _, f := range r.fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return nil, false
}

// Value returns the value stored under label, or nil.
func (r Row) Value(label string) any {
	v, _ := r.Get(label)
	return v
}

// Has reports whether label holds a truthy value (non-empty, non-zero).
func (r Row) Has(label string) bool {
	return normalize.Truthy(r.Value(label))
}

// Text returns the cell under label rendered as text ("" when absent).
func (r Row) Text(label string) string {
	return normalize.String(r.Value(label))
}

// FirstText returns the text of the first label holding a truthy value.
func (r Row) FirstText(labels ...string) string {
	for _, l := range labels {
		if r.Has(l) {
			return r.Text(l)
		}
	}
	return ""
}

// With returns a copy of r with label set to value. An existing label keeps
// its position; a new label is appended.
func (r Row) With(label string, value any) Row {
	fields := make([]Field, len(r.fields), len(r.fields)+1)
	copy(fields, r.fields)
	for i := range fields {
		if fields[i].Label == label {
			fields[i].Value = value
			return Row{fields: fields}
		}
	}
	return Row{fields: append(fields, Field{Label: label, Value: value})}
}

// CleanLabels returns a copy of r whose labels have zero-width marks and
// surrounding whitespace removed. Labels that collide after cleaning keep
// the last value.
func (r Row) CleanLabels() Row {
	var out Row
	for _, f := range r.fields {
		out = out.With(normalize.Label(f.Label), f.Value)
	}
	return out
}

// Equal reports whether both rows hold the same labels, in the same order,
// with the same canonical values.
func (r Row) Equal(other Row) bool {
	a, errA := r.MarshalJSON()
	b, errB := other.MarshalJSON()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("sheet: encode %q: %w", f.Label, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order. Numbers are
// kept as json.Number so identifiers survive verbatim.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sheet: row must be a JSON object, got %v", tok)
	}

	var out Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sheet: unexpected key token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("sheet: decode %q: %w", label, err)
		}
		value, err := decodeCell(raw)
		if err != nil {
			return fmt.Errorf("sheet: decode %q: %w", label, err)
		}
		out = out.With(label, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}

func decodeCell(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return json.RawMessage(append([]byte(nil), trimmed...)), nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
