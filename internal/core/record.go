package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one named value of a structured record.
type Field struct {
	Name  string
	Value string
}

// Record is one entry of a loaded database: either an ordered set of
// fields (JSON objects, CSV rows) or a bare line of text.
type Record struct {
	fields []Field
	text   string
	isText bool
}

// NewFieldRecord builds a structured record. Field order is kept.
func NewFieldRecord(fields ...Field) Record {
	if fields == nil {
		fields = []Field{}
	}
	return Record{fields: fields}
}

// NewTextRecord builds a plain text record.
func NewTextRecord(line string) Record {
	return Record{text: line, isText: true}
}

// IsText reports whether the record is a bare line.
func (r Record) IsText() bool { return r.isText }

// Text returns the line of a text record.
func (r Record) Text() string { return r.text }

// Fields returns the fields of a structured record in file order.
func (r Record) Fields() []Field { return r.fields }

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every searchable value of the record.
func (r Record) Values() []string {
	if r.isText {
		return []string{r.text}
	}
	vals := make([]string, len(r.fields))
	for i, f := range r.fields {
		vals[i] = f.Value
	}
	return vals
}

// set assigns a field, keeping the first position of a repeated name.
func (r *Record) set(name, value string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// MarshalJSON encodes field records as objects with keys in file order and
// text records as strings.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.isText {
		return json.Marshal(r.text)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("encode field name: %w", err)
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", f.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the record for logs and plain-text output.
func (r Record) String() string {
	if r.isText {
		return r.text
	}
	var buf bytes.Buffer
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(f.Value)
	}
	return buf.String()
}
