// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"github.com/juju/errors"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/registry"
)

// Lens is a writable cell zoomed onto part of a parent cell. Changes to
// the parent are reflected in the lens, and setting the lens writes the
// part back into the parent on the same channel.
type Lens[C any] struct {
	*Cell[C]

	release func()
	back    registry.Handle
}

// Zoom returns a lens onto the part of parent selected by get. with must
// return a copy of its first argument with the part replaced. The lens
// may be empty only if the parent may.
func Zoom[P, C any](parent *Cell[P], get func(P) C, with func(P, C) P, opts ...Option) (*Lens[C], error) {
	if !parent.IsMutable() {
		return nil, errors.NotSupportedf("zooming into immutable cell %q", parent.ID())
	}
	focus := func(item change.Item[P]) change.Item[C] {
		v, ok := item.Get()
		if !ok {
			return change.None[C]()
		}
		return change.ItemOf(get(v))
	}
	opts = append([]Option{WithID(parent.ID()), WithArena(parent.Arena())}, opts...)
	child, err := newCell(focus(parent.Item()), parent.AllowsNull(), true, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "zooming into %q", parent.ID())
	}

	arena := parent.Arena()
	h := arena.Track(child)
	_, err = parent.OnChangeWeak(h, channel.All, func(o any, d Delegate[P]) {
		c := o.(*Cell[C])
		item := focus(d.Current())
		if err := c.check(item); err != nil {
			c.logger.Warningf("lens %q: %v", c.id, err)
			return
		}
		c.assign(d.Channel(), item)
	})
	if err != nil {
		arena.Release(h)
		return nil, errors.Trace(err)
	}

	back := child.OnChange(channel.All, func(d Delegate[C]) {
		var err error
		if v, ok := d.Current().Get(); !ok {
			err = parent.SetAbsent(d.Channel())
		} else if p, ok := parent.Item().Get(); ok {
			err = parent.SetItem(d.Channel(), change.ItemOf(with(p, v)))
		} else {
			err = errors.NotFoundf("item of parent %q", parent.ID())
		}
		if err != nil {
			child.logger.Warningf("lens %q: writing back: %v", child.id, err)
		}
	})
	return &Lens[C]{
		Cell: child,
		back: back,
		release: func() {
			arena.Release(h)
		},
	}, nil
}

// Close detaches the lens from its parent in both directions.
func (l *Lens[C]) Close() {
	l.release()
	l.Unsubscribe(l.back)
}
