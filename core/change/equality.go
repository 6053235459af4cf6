// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package change

import (
	"bytes"
	"reflect"
	"slices"
)

// Equality compares two values of the same declared type.
type Equality[T any] func(a, b T) bool

// Equaler is implemented by payloads which define their own value
// equality.
type Equaler[T any] interface {
	Equal(other T) bool
}

// EqualityFor selects the equality strategy for the declared type T.
// The strategy is chosen once from the shape of T:
//   - types implementing Equaler[T] use their Equal method;
//   - interface types dispatch on the shape of each payload;
//   - slices compare by contents;
//   - comparable types (including arrays) use ==.
func EqualityFor[T any]() Equality[T] {
	t := reflect.TypeFor[T]()
	switch {
	case t.Implements(reflect.TypeFor[Equaler[T]]()):
		return func(a, b T) bool {
			return any(a).(Equaler[T]).Equal(b)
		}
	case t.Kind() == reflect.Interface:
		return func(a, b T) bool {
			return ValuesEqual(a, b)
		}
	case t.Kind() == reflect.Slice:
		return func(a, b T) bool {
			return contentsEqual(a, b)
		}
	case t.Comparable():
		return func(a, b T) bool {
			return comparableEqual(a, b)
		}
	default:
		return func(a, b T) bool {
			return reflect.DeepEqual(a, b)
		}
	}
}

// ValuesEqual compares two payloads by value. Slices are compared by
// their contents rather than by reference, so two structurally identical
// slices are equal.
func ValuesEqual(a, b any) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if e, ok := a.(interface{ Equal(any) bool }); ok {
		return e.Equal(b)
	}
	if reflect.TypeOf(a).Kind() == reflect.Slice {
		return contentsEqual(a, b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if reflect.TypeOf(a).Comparable() {
		return comparableEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// contentsEqual compares slice-shaped payloads element by element,
// using typed fast paths for the common element types.
func contentsEqual(a, b any) bool {
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case []int:
		y, ok := b.([]int)
		return ok && slices.Equal(x, y)
	case []int32:
		y, ok := b.([]int32)
		return ok && slices.Equal(x, y)
	case []int64:
		y, ok := b.([]int64)
		return ok && slices.Equal(x, y)
	case []uint:
		y, ok := b.([]uint)
		return ok && slices.Equal(x, y)
	case []uint64:
		y, ok := b.([]uint64)
		return ok && slices.Equal(x, y)
	case []float32:
		y, ok := b.([]float32)
		return ok && slices.Equal(x, y)
	case []float64:
		y, ok := b.([]float64)
		return ok && slices.Equal(x, y)
	case []bool:
		y, ok := b.([]bool)
		return ok && slices.Equal(x, y)
	case []string:
		y, ok := b.([]string)
		return ok && slices.Equal(x, y)
	case []any:
		y, ok := b.([]any)
		return ok && slices.EqualFunc(x, y, ValuesEqual)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.IsNil() != vb.IsNil() {
		// A nil slice and an empty slice hold the same contents.
		return va.Len() == 0 && vb.Len() == 0
	}
	if va.Len() != vb.Len() {
		return false
	}
	for i := 0; i < va.Len(); i++ {
		if !ValuesEqual(va.Index(i).Interface(), vb.Index(i).Interface()) {
			return false
		}
	}
	return true
}

// comparableEqual uses == for payloads whose type is comparable. A struct
// holding interface fields can still panic at runtime when those fields
// carry incomparable values; DeepEqual is used in that case.
func comparableEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
