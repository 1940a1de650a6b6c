// Package option models an explicitly present-or-absent value for partial
// updates. An absent field leaves the stored value unchanged.
package option

import (
	"bytes"
	"encoding/json"
)

// Option holds a value of T together with a presence flag.
type Option[T any] struct {
	value T
	set   bool
}

// Some returns a present Option.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool { return o.set }

// Get returns the value and its presence flag.
func (o Option[T]) Get() (T, bool) { return o.value, o.set }

// OrElse returns the held value, or fallback when absent.
func (o Option[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Apply writes the held value into dst when present.
func (o Option[T]) Apply(dst *T) {
	if o.set {
		*dst = o.value
	}
}

// UnmarshalJSON treats an explicit null the same as an omitted field.
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Option[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
