// Package candidate defines the values a picker chooses between.
//
// A Candidate is either a plain text label or a structured record of scalar
// fields. Candidates are immutable and compare by value: two records with the
// same fields are equal regardless of field order.
package candidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/drake/pick/text"
)

// ErrNotScalar is returned when a record field holds a nested value.
var ErrNotScalar = errors.New("record field is not a scalar")

// Kind identifies the shape of a Candidate.
type Kind int

const (
	KindText Kind = iota
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRecord:
		return "record"
	}
	return "unknown"
}

// Field is one name/value pair of a record.
type Field struct {
	Name  string
	Value any
}

// Candidate is one selectable item.
type Candidate struct {
	kind   Kind
	text   string
	fields *orderedmap.OrderedMap[string, any]
	key    string
}

// Text creates a text candidate.
func Text(s string) Candidate {
	return Candidate{kind: KindText, text: s, key: "t" + s}
}

// Texts creates text candidates from labels, preserving order.
func Texts(labels ...string) []Candidate {
	out := make([]Candidate, len(labels))
	for i, l := range labels {
		out[i] = Text(l)
	}
	return out
}

// Record creates a record candidate. Later fields with a repeated name
// overwrite earlier ones but keep the first position.
func Record(fields ...Field) (Candidate, error) {
	om := orderedmap.New[string, any](len(fields))
	for _, f := range fields {
		if !isScalar(f.Value) {
			return Candidate{}, fmt.Errorf("field %q: %w", f.Name, ErrNotScalar)
		}
		om.Set(f.Name, f.Value)
	}
	return newRecord(om), nil
}

// MustRecord is like Record but panics on a nested value.
func MustRecord(fields ...Field) Candidate {
	c, err := Record(fields...)
	if err != nil {
		panic(err)
	}
	return c
}

// FromMap creates a record with fields sorted by name.
func FromMap(m map[string]any) (Candidate, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name, Value: m[name]}
	}
	return Record(fields...)
}

func newRecord(om *orderedmap.OrderedMap[string, any]) Candidate {
	c := Candidate{kind: KindRecord, fields: om}
	c.key = c.canonicalKey()
	return c
}

// Parse turns one input line into a candidate. A JSON object whose values
// are all scalars becomes a record; anything else becomes text. Blank lines
// report false.
func Parse(line string) (Candidate, bool) {
	line = text.Clean(line)
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Candidate{}, false
	}
	if strings.HasPrefix(trimmed, "{") {
		om := orderedmap.New[string, any]()
		if err := json.Unmarshal([]byte(trimmed), om); err == nil && allScalar(om) {
			return newRecord(om), true
		}
	}
	return Text(line), true
}

// Kind returns the candidate's shape.
func (c Candidate) Kind() Kind { return c.kind }

// IsText reports whether the candidate is a text label.
func (c Candidate) IsText() bool { return c.kind == KindText }

// Text returns the label of a text candidate.
func (c Candidate) Text() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// Get returns the value of a record field.
func (c Candidate) Get(name string) (any, bool) {
	if c.fields == nil {
		return nil, false
	}
	return c.fields.Get(name)
}

// Fields returns the record's fields in insertion order. Text candidates
// have no fields.
func (c Candidate) Fields() []Field {
	if c.fields == nil {
		return nil
	}
	out := make([]Field, 0, c.fields.Len())
	for pair := c.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Name: pair.Key, Value: pair.Value})
	}
	return out
}

// Label returns the display string: the text itself, or the record as JSON.
func (c Candidate) Label() string {
	if c.kind == KindText {
		return c.text
	}
	data, err := json.Marshal(c.fields)
	if err != nil {
		return c.key
	}
	return string(data)
}

func (c Candidate) String() string { return c.Label() }

// Key returns the canonical equality key.
func (c Candidate) Key() string { return c.key }

// Equal reports value equality.
func (c Candidate) Equal(o Candidate) bool { return c.key == o.key }

// IsZero reports whether c is the zero Candidate.
func (c Candidate) IsZero() bool { return c.key == "" }

// MarshalJSON writes text as a JSON string and records as an object.
func (c Candidate) MarshalJSON() ([]byte, error) {
	if c.kind == KindText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.fields)
}

// Index returns the position of c in list by value equality, or -1.
func Index(list []Candidate, c Candidate) int {
	for i, item := range list {
		if item.key == c.key {
			return i
		}
	}
	return -1
}

// FormatValue stringifies a scalar field value the way it is matched.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

func (c Candidate) canonicalKey() string {
	fields := c.Fields()
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	var b strings.Builder
	b.WriteString("r")
	for _, f := range fields {
		b.WriteString(strconv.Quote(f.Name))
		b.WriteByte('=')
		switch v := f.Value.(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		default:
			b.WriteString(FormatValue(v))
		}
		b.WriteByte(';')
	}
	return b.String()
}

func allScalar(om *orderedmap.OrderedMap[string, any]) bool {
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		if !isScalar(pair.Value) {
			return false
		}
	}
	return true
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number:
		return true
	}
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
