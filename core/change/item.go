// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package change

import (
	"fmt"
	"reflect"
)

// Item is a single slot which either holds a value or is absent.
// The zero Item is absent.
type Item[T any] struct {
	value   T
	present bool
}

// Some returns a present item holding value, even if value is nil.
func Some[T any](value T) Item[T] {
	return Item[T]{value: value, present: true}
}

// None returns an absent item.
func None[T any]() Item[T] {
	return Item[T]{}
}

// ItemOf returns an item holding value. A nil pointer, interface, map,
// slice, channel or func is treated as absent.
func ItemOf[T any](value T) Item[T] {
	if IsNil(value) {
		return None[T]()
	}
	return Some(value)
}

// Get returns the value and whether it is present. The value is the
// zero value of T when absent.
func (i Item[T]) Get() (T, bool) {
	return i.value, i.present
}

// Value returns the held value, or the zero value of T when absent.
func (i Item[T]) Value() T {
	return i.value
}

// IsPresent reports whether the item holds a value.
func (i Item[T]) IsPresent() bool {
	return i.present
}

// OrElse returns the held value, or def when absent.
func (i Item[T]) OrElse(def T) T {
	if !i.present {
		return def
	}
	return i.value
}

// String implements fmt.Stringer.
func (i Item[T]) String() string {
	if !i.present {
		return "<absent>"
	}
	return fmt.Sprint(i.value)
}

// IsNil reports whether value is nil, either untyped or as a nil
// pointer, interface, map, slice, channel or func.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
