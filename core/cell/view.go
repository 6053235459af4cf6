// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

// Source is a cell a view can be derived from.
type Source[T any] interface {
	Item() change.Item[T]
	ID() string
	Arena() *owner.Arena
	OnChangeWeak(owner.Handle, channel.Channel, func(any, Delegate[T])) (registry.Handle, error)
}

// View is a read-only cell recomputed from its sources every time one of
// them notifies. A View stays attached to its sources until Close.
type View[T any] struct {
	state[T]

	eval        func() (change.Item[T], error)
	nullObject  change.Item[T]
	errorObject change.Item[T]
	detach      []func()
}

type viewConfig[T any] struct {
	nullObject  change.Item[T]
	errorObject change.Item[T]
	nullable    bool
	opts        []Option
}

// ViewOption configures a view at construction.
type ViewOption[T any] func(*viewConfig[T])

// WithNullObject substitutes v whenever the combiner yields an absent
// result.
func WithNullObject[T any](v T) ViewOption[T] {
	return func(c *viewConfig[T]) {
		c.nullObject = change.ItemOf(v)
	}
}

// WithErrorObject substitutes v whenever the combiner fails.
func WithErrorObject[T any](v T) ViewOption[T] {
	return func(c *viewConfig[T]) {
		c.errorObject = change.ItemOf(v)
	}
}

// NullableView lets the view become empty when the combiner yields an
// absent result.
func NullableView[T any]() ViewOption[T] {
	return func(c *viewConfig[T]) {
		c.nullable = true
	}
}

// ViewWith applies cell options to the view.
func ViewWith[T any](opts ...Option) ViewOption[T] {
	return func(c *viewConfig[T]) {
		c.opts = append(c.opts, opts...)
	}
}

// NewView returns a view of src mapped through combiner. An absent
// source item is passed to combiner as the zero value of S.
//
// If the first evaluation fails or yields an absent result that no
// option covers, NewView returns an error. Later failures substitute the
// configured fallback, or leave the previous value in place.
func NewView[S, R any](src Source[S], combiner func(S) (R, error), opts ...ViewOption[R]) (*View[R], error) {
	eval := func() (change.Item[R], error) {
		return invoke(func() (R, error) {
			return combiner(src.Item().Value())
		})
	}
	opts = append([]ViewOption[R]{ViewWith[R](WithID(src.ID()), WithArena(src.Arena()))}, opts...)
	v, err := newView(eval, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "view of %q", src.ID())
	}
	if err := attach(v, src); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// NewView2 returns a view combining a and b. It is recomputed when
// either source notifies; the same failure policy as NewView applies.
func NewView2[A, B, R any](a Source[A], b Source[B], combiner func(A, B) (R, error), opts ...ViewOption[R]) (*View[R], error) {
	eval := func() (change.Item[R], error) {
		return invoke(func() (R, error) {
			return combiner(a.Item().Value(), b.Item().Value())
		})
	}
	opts = append([]ViewOption[R]{ViewWith[R](WithID(joinIDs(a.ID(), b.ID())), WithArena(a.Arena()))}, opts...)
	v, err := newView(eval, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "view of %q and %q", a.ID(), b.ID())
	}
	if err := attach(v, a); err != nil {
		return nil, errors.Trace(err)
	}
	if err := attach(v, b); err != nil {
		v.Close()
		return nil, errors.Trace(err)
	}
	return v, nil
}

func joinIDs(a, b string) string {
	switch {
	case a == NoID:
		return b
	case b == NoID:
		return a
	}
	return a + "_and_" + b
}

// Observe returns a view over any change notifier. subscribe must arrange
// for notify to be called on every change and return a function that
// cancels the arrangement; read is called to compute the value.
func Observe[T any](subscribe func(notify func()) (cancel func()), read func() (T, error), opts ...ViewOption[T]) (*View[T], error) {
	eval := func() (change.Item[T], error) {
		return invoke(read)
	}
	v, err := newView(eval, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cancel := subscribe(v.refresh)
	v.detach = append(v.detach, cancel)
	return v, nil
}

func newView[T any](eval func() (change.Item[T], error), opts []ViewOption[T]) (*View[T], error) {
	var cfg viewConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	v := &View[T]{
		eval:        eval,
		nullObject:  cfg.nullObject,
		errorObject: cfg.errorObject,
	}
	item, err := eval()
	switch {
	case err != nil && !cfg.errorObject.IsPresent():
		return nil, errors.Trace(err)
	case err != nil:
		item = cfg.errorObject
	case !item.IsPresent() && cfg.nullObject.IsPresent():
		item = cfg.nullObject
	}
	if err := v.init("view", item, cfg.nullable, false, cfg.opts); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// attach registers v on src, owned by v through src's arena.
func attach[S, R any](v *View[R], src Source[S]) error {
	arena := src.Arena()
	h := arena.Track(v)
	_, err := src.OnChangeWeak(h, channel.All, func(o any, _ Delegate[S]) {
		o.(*View[R]).refresh()
	})
	if err != nil {
		arena.Release(h)
		return errors.Trace(err)
	}
	v.detach = append(v.detach, func() {
		arena.Release(h)
	})
	return nil
}

func (v *View[T]) refresh() {
	item, err := v.eval()
	switch {
	case err != nil && v.errorObject.IsPresent():
		v.logger.Debugf("view %q: using error object: %v", v.id, err)
		item = v.errorObject
	case err != nil:
		v.logger.Warningf("view %q: keeping %s: %v", v.id, v.item, err)
		return
	case !item.IsPresent() && v.nullObject.IsPresent():
		item = v.nullObject
	case !item.IsPresent() && !v.nullable:
		v.logger.Warningf("view %q: keeping %s: combiner returned no item", v.id, v.item)
		return
	}
	if err := v.check(item); err != nil {
		v.logger.Warningf("view %q: keeping %s: %v", v.id, v.item, err)
		return
	}
	v.assign(channel.All, item)
}

// Close detaches the view from its sources. The view keeps its last
// value. Close is idempotent.
func (v *View[T]) Close() {
	for _, fn := range v.detach {
		fn()
	}
	v.detach = nil
}

// invoke runs fn, converting a panic into an error.
func invoke[T any](fn func() (T, error)) (item change.Item[T], err error) {
	defer func() {
		if p := recover(); p != nil {
			item, err = change.None[T](), errors.Errorf("combiner panicked: %v", p)
		}
	}()
	v, err := fn()
	if err != nil {
		return change.None[T](), err
	}
	return change.ItemOf(v), nil
}

// ViewIsPresent returns a view reporting whether src holds an item.
func ViewIsPresent[T any](src Source[T]) (*View[bool], error) {
	eval := func() (change.Item[bool], error) {
		return change.Some(src.Item().IsPresent()), nil
	}
	return viewOf(src, eval)
}

// ViewString returns a view of the string form of src's item. An empty
// source yields the empty string.
func ViewString[T any](src Source[T]) (*View[string], error) {
	eval := func() (change.Item[string], error) {
		v, ok := src.Item().Get()
		if !ok {
			return change.Some(""), nil
		}
		return change.Some(fmt.Sprint(v)), nil
	}
	return viewOf(src, eval)
}

func viewOf[S, R any](src Source[S], eval func() (change.Item[R], error)) (*View[R], error) {
	v, err := newView(eval, []ViewOption[R]{ViewWith[R](WithID(src.ID()), WithArena(src.Arena()))})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := attach(v, src); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// Bind registers fn on src for as long as o is tracked in src's arena,
// handing fn the owner as an O.
func Bind[O, T any](src Source[T], o owner.Handle, ch channel.Channel, fn func(O, Delegate[T])) (registry.Handle, error) {
	return src.OnChangeWeak(o, ch, func(v any, d Delegate[T]) {
		if typed, ok := v.(O); ok {
			fn(typed, d)
		}
	})
}
