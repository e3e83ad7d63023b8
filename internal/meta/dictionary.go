// Package meta provides the static per-stream metadata dictionary.
//
// The dictionary holds an ordered list of field names (the schema) and a
// mapping of stream name to field values. Each field becomes an extra label on
// every per-stream metric, so the schema is fixed for the lifetime of the
// process and every label vector has the same arity.
package meta

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/prometheus/common/model"
)

// Unspecified is the label value used when a stream has no value for a field.
const Unspecified = "unspecified"

// Label names that prefix every per-stream label vector.
const (
	LabelApplication = "application"
	LabelStream      = "stream"
)

var (
	// ErrUnknownField is returned when a value references a field outside the schema.
	ErrUnknownField = errors.New("unknown metadata field")

	// ErrInvalidLabel is returned when a field or global label is not a valid label name.
	ErrInvalidLabel = errors.New("invalid label name")

	// ErrDuplicateField is returned when the schema lists a field twice.
	ErrDuplicateField = errors.New("duplicate metadata field")
)

// Entry is a single configured (stream, field, value) triple.
type Entry struct {
	Stream string
	Field  string
	Value  string
}

// Dictionary maps stream names to metadata values over a fixed schema.
// It is built once at startup and only read afterwards.
type Dictionary struct {
	fields []string
	known  map[string]struct{}
	values map[string]map[string]string
	global map[string]string
}

// New creates a dictionary with the given ordered schema.
func New(fields ...string) (*Dictionary, error) {
	d := &Dictionary{
		fields: make([]string, 0, len(fields)),
		known:  make(map[string]struct{}, len(fields)),
		values: make(map[string]map[string]string),
		global: make(map[string]string),
	}

	for _, f := range fields {
		if err := validateLabelName(f); err != nil {
			return nil, err
		}
		if f == LabelApplication || f == LabelStream {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidLabel, f)
		}
		if _, dup := d.known[f]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f)
		}
		d.known[f] = struct{}{}
		d.fields = append(d.fields, f)
	}

	return d, nil
}

// Add records a value for a stream. The field must be part of the schema.
func (d *Dictionary) Add(stream, field, value string) error {
	if _, ok := d.known[field]; !ok {
		return fmt.Errorf("%w: %q (stream %q)", ErrUnknownField, field, stream)
	}

	m, ok := d.values[stream]
	if !ok {
		m = make(map[string]string)
		d.values[stream] = m
	}
	m[field] = value
	return nil
}

// SetGlobal records a constant label applied to every exported metric.
func (d *Dictionary) SetGlobal(name, value string) error {
	if err := validateLabelName(name); err != nil {
		return err
	}
	if _, clash := d.known[name]; clash || name == LabelApplication || name == LabelStream {
		return fmt.Errorf("%w: global label %q collides with a stream label", ErrInvalidLabel, name)
	}
	d.global[name] = value
	return nil
}

// Fields returns the schema in order.
func (d *Dictionary) Fields() []string {
	return slices.Clone(d.fields)
}

// LabelNames returns the label names of every per-stream metric.
func (d *Dictionary) LabelNames() []string {
	names := make([]string, 0, 2+len(d.fields))
	names = append(names, LabelApplication, LabelStream)
	return append(names, d.fields...)
}

// Values returns the schema-ordered values for a stream, using Unspecified
// for every field the stream has no value for.
func (d *Dictionary) Values(stream string) []string {
	values := make([]string, len(d.fields))
	m := d.values[stream]
	for i, f := range d.fields {
		if v, ok := m[f]; ok {
			values[i] = v
		} else {
			values[i] = Unspecified
		}
	}
	return values
}

// Labels builds the label vector for a stream: application, stream, then
// one value per schema field. The result always has 2+len(Fields()) entries.
func (d *Dictionary) Labels(application, stream string) []string {
	labels := make([]string, 0, 2+len(d.fields))
	labels = append(labels, application, stream)
	return append(labels, d.Values(stream)...)
}

// Arity returns the length of every label vector built by Labels.
func (d *Dictionary) Arity() int {
	return 2 + len(d.fields)
}

// Entries returns every configured value, sorted by stream then field.
func (d *Dictionary) Entries() []Entry {
	var entries []Entry
	for stream, m := range d.values {
		for field, value := range m {
			entries = append(entries, Entry{Stream: stream, Field: field, Value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stream != entries[j].Stream {
			return entries[i].Stream < entries[j].Stream
		}
		return entries[i].Field < entries[j].Field
	})
	return entries
}

// Global returns a copy of the constant labels.
func (d *Dictionary) Global() map[string]string {
	return maps.Clone(d.global)
}

// Streams returns the number of streams with at least one configured value.
func (d *Dictionary) Streams() int {
	return len(d.values)
}

func validateLabelName(name string) error {
	if !model.LabelName(name).IsValidLegacy() {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, name)
	}
	return nil
}
