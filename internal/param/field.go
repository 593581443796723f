package param

import (
	"encoding/json"
	"fmt"
)

// FieldLike is implemented by every [Field].
type FieldLike interface {
	IsPresent() bool
	IsNull() bool
	Any() any
}

// Field is a request parameter that is left out of the request until it is set.
// Use kittycad.F, kittycad.Null and kittycad.Raw to build one.
type Field[T any] struct {
	Value   T
	Null    bool
	Present bool
	Raw     any
}

// IsPresent reports whether the field will be sent.
func (f Field[T]) IsPresent() bool { return f.Present }

// IsNull reports whether the field is sent as an explicit null.
func (f Field[T]) IsNull() bool { return f.Present && f.Null }

// IsZero lets encoding/json drop unset fields through the omitzero tag option.
func (f Field[T]) IsZero() bool { return !f.Present }

// Any returns the raw override if one was given, else the typed value.
func (f Field[T]) Any() any {
	if f.Raw != nil {
		return f.Raw
	}
	return f.Value
}

func (f Field[T]) String() string {
	switch {
	case !f.Present:
		return ""
	case f.Null:
		return "null"
	default:
		return fmt.Sprintf("%v", f.Any())
	}
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch {
	case !f.Present, f.Null:
		return []byte("null"), nil
	default:
		return json.Marshal(f.Any())
	}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field[T]{Null: true, Present: true}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Field[T]{Value: v, Present: true}
	return nil
}
