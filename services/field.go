package services

import "encoding/json"

// FieldState distinguishes a field that was left out of an update from one
// explicitly reset and one given a value.
type FieldState int

const (
	Unset FieldState = iota
	Reset
	Set
)

func (s FieldState) String() string {
	switch s {
	case Reset:
		return "reset"
	case Set:
		return "set"
	default:
		return "unset"
	}
}

// Field is one updatable value of a partial update. In JSON, a missing key
// leaves the field Unset, an explicit null Resets it, and anything else Sets it.
type Field[T any] struct {
	State FieldState
	Value T
}

// SetField returns a field holding v
func SetField[T any](v T) Field[T] {
	return Field[T]{State: Set, Value: v}
}

// ResetField returns a field asking for its default value
func ResetField[T any]() Field[T] {
	return Field[T]{State: Reset}
}

// UnmarshalJSON is only called when the key is present
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		var zero T
		f.State = Reset
		f.Value = zero
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.State = Set
	f.Value = v
	return nil
}

// resolve maps the field onto an optional new value: nil when Unset,
// def when Reset, the value when Set.
func resolve[T any](f Field[T], def T) *T {
	switch f.State {
	case Reset:
		return &def
	case Set:
		v := f.Value
		return &v
	default:
		return nil
	}
}
