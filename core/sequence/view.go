// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence

import (
	"github.com/juju/errors"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
)

// View is a read-only sequence kept in sync with a source sequence by
// mapping every element. Single-range additions, removals and sets are
// applied incrementally; any other mutation rebuilds the view.
type View[R any] struct {
	*Sequence[R]

	nullObject  change.Item[R]
	errorObject change.Item[R]
	detach      func()
}

type viewConfig[R any] struct {
	nullObject  change.Item[R]
	errorObject change.Item[R]
	opts        []Option
}

// ViewOption configures a sequence view.
type ViewOption[R any] func(*viewConfig[R])

// WithNullObject substitutes v for absent source elements and absent
// mapper results.
func WithNullObject[R any](v R) ViewOption[R] {
	return func(c *viewConfig[R]) {
		c.nullObject = change.ItemOf(v)
	}
}

// WithErrorObject substitutes v for elements the mapper fails on.
func WithErrorObject[R any](v R) ViewOption[R] {
	return func(c *viewConfig[R]) {
		c.errorObject = change.ItemOf(v)
	}
}

// ViewWith applies sequence options to the view.
func ViewWith[R any](opts ...Option) ViewOption[R] {
	return func(c *viewConfig[R]) {
		c.opts = append(c.opts, opts...)
	}
}

// NewView returns a view of src with every element mapped through
// mapper. The elements of the view may be absent. If mapper fails on
// any element while the view is built, and no error object is
// configured, NewView returns the error; later failures leave the
// element absent.
func NewView[S, R any](src *Sequence[S], mapper func(S) (R, error), opts ...ViewOption[R]) (*View[R], error) {
	cfg := viewConfig[R]{
		opts: []Option{WithArena(src.Arena())},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	base, err := newEmpty[R](true, false, cfg.opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	v := &View[R]{
		Sequence:    base,
		nullObject:  cfg.nullObject,
		errorObject: cfg.errorObject,
	}
	mapOne := func(item change.Item[S]) (change.Item[R], error) {
		return mapItem(v, mapper, item)
	}

	snap := src.Snapshot()
	items := make([]change.Item[R], snap.Len())
	for i := range snap.Len() {
		if items[i], err = mapOne(snap.At(i)); err != nil {
			return nil, errors.Annotatef(err, "mapping element %d", i)
		}
	}
	if base.cells, err = base.newCells(items); err != nil {
		return nil, errors.Trace(err)
	}

	arena := src.Arena()
	h := arena.Track(v)
	_, err = src.OnChangeWeak(h, func(o any, d Delegate[S]) {
		apply(o.(*View[R]), d, mapOne)
	})
	if err != nil {
		arena.Release(h)
		return nil, errors.Trace(err)
	}
	v.detach = func() {
		arena.Release(h)
	}
	return v, nil
}

func mapItem[S, R any](v *View[R], mapper func(S) (R, error), item change.Item[S]) (out change.Item[R], err error) {
	in, ok := item.Get()
	if !ok {
		return v.nullObject, nil
	}
	defer func() {
		if p := recover(); p != nil {
			out, err = v.fallback(errors.Errorf("mapper panicked: %v", p))
		}
	}()
	r, err := mapper(in)
	if err != nil {
		return v.fallback(err)
	}
	if out = change.ItemOf(r); !out.IsPresent() {
		return v.nullObject, nil
	}
	return out, nil
}

func (v *View[R]) fallback(err error) (change.Item[R], error) {
	if v.errorObject.IsPresent() {
		return v.errorObject, nil
	}
	return change.None[R](), err
}

func mapSnapshot[S, R any](v *View[R], snap Snapshot[S], mapOne func(change.Item[S]) (change.Item[R], error)) []*cell.Cell[R] {
	items := make([]change.Item[R], snap.Len())
	for i := range snap.Len() {
		item, err := mapOne(snap.At(i))
		if err != nil {
			v.logger.Warningf("sequence view: leaving element %d absent: %v", i, err)
		}
		items[i] = item
	}
	cells, err := v.newCells(items)
	if err != nil {
		v.logger.Errorf("sequence view: %v", err)
		return nil
	}
	return cells
}

func apply[S, R any](v *View[R], d Delegate[S], mapOne func(change.Item[S]) (change.Item[R], error)) {
	start, single := d.Index()
	switch {
	case d.Kind() == NoChange:
	case single && d.Kind() == Add:
		v.insert(start, mapSnapshot(v, d.Added(), mapOne))
	case single && d.Kind() == Remove:
		v.cut(start, start+d.Diff().Size())
	case single && d.Kind() == Set:
		v.replace(start, mapSnapshot(v, d.Added(), mapOne))
	default:
		cells := mapSnapshot(v, d.Result(), mapOne)
		v.rebuild(d.Kind(), d.Diff().Size(), cells, v.cells, cells)
	}
}

// Close detaches the view from its source. It is idempotent.
func (v *View[R]) Close() {
	if v.detach != nil {
		v.detach()
		v.detach = nil
	}
}

// ViewLen returns a cell view of the length of src.
func ViewLen[T any](src *Sequence[T]) (*cell.View[int], error) {
	return cell.Observe(subscriber(src), func() (int, error) {
		return src.Len(), nil
	}, cell.ViewWith[int](cell.WithArena(src.Arena())))
}

// ViewIsEmpty returns a cell view reporting whether src is empty.
func ViewIsEmpty[T any](src *Sequence[T]) (*cell.View[bool], error) {
	return cell.Observe(subscriber(src), func() (bool, error) {
		return src.IsEmpty(), nil
	}, cell.ViewWith[bool](cell.WithArena(src.Arena())))
}

func subscriber[T any](src *Sequence[T]) func(func()) func() {
	return func(notify func()) func() {
		h := src.Subscribe(notify)
		return func() {
			src.Unsubscribe(h)
		}
	}
}
