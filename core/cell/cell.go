// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"github.com/juju/errors"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
)

// Cell is a reactive slot holding a single item.
type Cell[T any] struct {
	state[T]
}

// New returns a mutable cell which must always hold an item.
func New[T any](item T, opts ...Option) (*Cell[T], error) {
	return newCell(change.ItemOf(item), false, true, opts)
}

// NewNullable returns a mutable cell which may be empty. A nil item
// leaves it empty.
func NewNullable[T any](item T, opts ...Option) (*Cell[T], error) {
	return newCell(change.ItemOf(item), true, true, opts)
}

// Empty returns an empty mutable nullable cell.
func Empty[T any](opts ...Option) (*Cell[T], error) {
	return newCell(change.None[T](), true, true, opts)
}

// Immutable returns a cell whose item never changes. It can still fire
// NoChange notifications.
func Immutable[T any](item T, opts ...Option) (*Cell[T], error) {
	return newCell(change.ItemOf(item), false, false, opts)
}

// ImmutableNullable returns a cell whose item never changes and which
// may be empty. item is stored as is.
func ImmutableNullable[T any](item change.Item[T], opts ...Option) (*Cell[T], error) {
	return newCell(item, true, false, opts)
}

// Must panics if err is not nil and returns c otherwise.
func Must[T any](c *Cell[T], err error) *Cell[T] {
	if err != nil {
		panic(err)
	}
	return c
}

func newCell[T any](item change.Item[T], nullable, mutable bool, opts []Option) (*Cell[T], error) {
	c := &Cell[T]{}
	if err := c.init("cell", item, nullable, mutable, opts); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

// Set stores item, attributing the change to ch. Listeners are only
// notified if the item changed. A nil item empties the cell.
func (c *Cell[T]) Set(ch channel.Channel, item T) error {
	return c.setItem(ch, change.ItemOf(item))
}

// SetAbsent empties the cell.
func (c *Cell[T]) SetAbsent(ch channel.Channel) error {
	return c.setItem(ch, change.None[T]())
}

// SetItem stores item as is.
func (c *Cell[T]) SetItem(ch channel.Channel, item change.Item[T]) error {
	return c.setItem(ch, item)
}

// Update replaces the item with the result of fn applied to the current
// value. The zero value is passed if the cell is empty. fn is not called
// on an immutable cell.
func (c *Cell[T]) Update(ch channel.Channel, fn func(T) T) error {
	if !c.mutable {
		return errors.NotSupportedf("setting immutable cell %q", c.id)
	}
	return c.setItem(ch, change.ItemOf(fn(c.item.Value())))
}

func (c *Cell[T]) setItem(ch channel.Channel, item change.Item[T]) error {
	if !c.mutable {
		return errors.NotSupportedf("setting immutable cell %q", c.id)
	}
	if err := c.check(item); err != nil {
		return errors.Trace(err)
	}
	c.assign(ch, item)
	return nil
}
