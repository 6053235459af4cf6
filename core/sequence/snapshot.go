// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence

import (
	"strings"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
)

// Snapshot is an immutable copy of the items of a sequence at one
// point in time.
type Snapshot[T any] struct {
	items []change.Item[T]
}

func snapshotOf[T any](cells []*cell.Cell[T]) Snapshot[T] {
	items := make([]change.Item[T], len(cells))
	for i, c := range cells {
		items[i] = c.Item()
	}
	return Snapshot[T]{items: items}
}

// Len returns the number of items.
func (s Snapshot[T]) Len() int {
	return len(s.items)
}

// At returns the item at index i. It panics if i is out of range.
func (s Snapshot[T]) At(i int) change.Item[T] {
	return s.items[i]
}

// Items returns a copy of the items.
func (s Snapshot[T]) Items() []change.Item[T] {
	out := make([]change.Item[T], len(s.items))
	copy(out, s.items)
	return out
}

// Values returns the values, with the zero value for absent items.
func (s Snapshot[T]) Values() []T {
	out := make([]T, len(s.items))
	for i, item := range s.items {
		out[i] = item.Value()
	}
	return out
}

func (s Snapshot[T]) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
