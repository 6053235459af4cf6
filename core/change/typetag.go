// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package change

import (
	"reflect"

	"github.com/juju/errors"
)

// TypeTag is the runtime declared type of a cell. It is fixed when the
// cell is created and checked on every mutating call, so a cell declared
// over an interface type can still be narrowed to a concrete type.
type TypeTag struct {
	t reflect.Type
}

// TypeOf returns the tag for the static type T.
func TypeOf[T any]() TypeTag {
	return TypeTag{t: reflect.TypeFor[T]()}
}

// TagOf returns the tag for the dynamic type of value.
func TagOf(value any) (TypeTag, error) {
	if value == nil {
		return TypeTag{}, errors.NotValidf("type tag of untyped nil")
	}
	return TypeTag{t: reflect.TypeOf(value)}, nil
}

// IsZero reports whether the tag is unset.
func (t TypeTag) IsZero() bool {
	return t.t == nil
}

// Accepts reports whether value may be stored under this tag. Nil values
// are accepted; nullability is checked separately.
func (t TypeTag) Accepts(value any) bool {
	if t.t == nil || IsNil(value) {
		return true
	}
	return reflect.TypeOf(value).AssignableTo(t.t)
}

// AssignableTo reports whether values of this tag's type can be stored
// in a slot declared with other.
func (t TypeTag) AssignableTo(other TypeTag) bool {
	if t.t == nil || other.t == nil {
		return true
	}
	return t.t.AssignableTo(other.t)
}

// Name returns the short name of the declared type.
func (t TypeTag) Name() string {
	if t.t == nil {
		return "?"
	}
	if t.t.Kind() == reflect.Interface && t.t.NumMethod() == 0 {
		return "any"
	}
	return t.t.String()
}

// String implements fmt.Stringer.
func (t TypeTag) String() string {
	return t.Name()
}
