package response

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Document is a search-result row: an ordered field name → value mapping.
// Go maps cannot hold JSON property order, and the backend's field order
// is part of the public contract, so the document is slice-backed.
type Document struct {
	fields []DocField
}

// DocField is one document field. Value is a scalar or a []any for
// multi-valued fields.
type DocField struct {
	Name  string
	Value any
}

// Set appends a field, replacing an earlier field of the same name in place.
func (d *Document) Set(name string, value any) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, DocField{Name: name, Value: value})
}

// Get returns the named field value.
func (d *Document) Get(name string) (any, bool) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			return d.fields[i].Value, true
		}
	}
	return nil, false
}

// Fields returns the fields in insertion order.
func (d *Document) Fields() []DocField { return d.fields }

// Len returns the field count.
func (d *Document) Len() int { return len(d.fields) }

// MarshalJSON renders the document as an object with fields in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
