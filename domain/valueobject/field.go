package valueobject

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Field is an optional JSON value that remembers whether it was sent at all and
// whether it was sent as null. An absent field leaves the stored value alone,
// a null one clears it to the zero value.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set returns a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Null returns a present field that clears the stored value.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present || f.Null {
		return jsonNull, nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value to store: the zero value for null, v otherwise.
func (f Field[T]) Get() T {
	if f.Null {
		var zero T
		return zero
	}
	return f.Value
}

// OrDefault returns def when the field was not sent.
func (f Field[T]) OrDefault(def T) T {
	if !f.Present {
		return def
	}
	return f.Get()
}

// Apply overwrites *dst when the field was sent.
func (f Field[T]) Apply(dst *T) {
	if f.Present {
		*dst = f.Get()
	}
}
