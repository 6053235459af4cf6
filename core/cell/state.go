// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

var logger = loggo.GetLogger("cells.cell")

// state is the part shared by every kind of cell: the item slot, its
// contract and the listeners.
type state[T any] struct {
	id        string
	tag       change.TypeTag
	nullable  bool
	mutable   bool
	item      change.Item[T]
	equal     change.Equality[T]
	logger    Logger
	listeners *registry.Registry[Delegate[T]]
}

func (s *state[T]) init(component string, item change.Item[T], nullable, mutable bool, opts []Option) error {
	cfg, err := newConfig(opts)
	if err != nil {
		return errors.Trace(err)
	}
	declared := change.TypeOf[T]()
	s.tag = declared
	if !cfg.tag.IsZero() {
		if !cfg.tag.AssignableTo(declared) {
			return errors.NotValidf("type %s for cell of %s", cfg.tag, declared)
		}
		s.tag = cfg.tag
	}
	s.equal = change.EqualityFor[T]()
	if cfg.equal != nil {
		equal, ok := cfg.equal.(change.Equality[T])
		if !ok {
			return errors.NotValidf("equality %T for cell of %s", cfg.equal, declared)
		}
		s.equal = equal
	}
	s.id = cfg.id
	s.nullable = nullable
	s.mutable = mutable
	s.logger = cfg.logger
	if err := s.check(item); err != nil {
		return errors.Trace(err)
	}
	s.item = item
	s.listeners = registry.New[Delegate[T]](registry.Config{
		Logger:    cfg.logger,
		Recorder:  cfg.recorder,
		Executor:  cfg.executor,
		Arena:     cfg.arena,
		Component: component,
	})
	return nil
}

// check verifies that item honours the nullability and type contract.
func (s *state[T]) check(item change.Item[T]) error {
	if !item.IsPresent() {
		if !s.nullable {
			return errors.Annotatef(ErrNullItem, "cell %q", s.id)
		}
		return nil
	}
	if !s.tag.Accepts(item.Value()) {
		return errors.Annotatef(ErrTypeMismatch, "cell %q of %s given %T", s.id, s.tag, item.Value())
	}
	return nil
}

// assign stores item and notifies listeners unless nothing changed. The
// item must already have been checked.
func (s *state[T]) assign(ch channel.Channel, item change.Item[T]) change.Kind {
	old := s.item
	kind := change.Classify(old, item, s.equal)
	if kind == change.NoChange {
		return kind
	}
	s.item = item
	s.dispatch(ch, old, kind)
	return kind
}

func (s *state[T]) dispatch(ch channel.Channel, old change.Item[T], kind change.Kind) {
	current := s.item
	s.listeners.Dispatch(ch, func() Delegate[T] {
		return Delegate[T]{
			channel: ch,
			id:      s.id,
			kind:    kind,
			old:     old,
			current: current,
			tag:     s.tag,
		}
	})
}

// Fire notifies the listeners of ch with a NoChange delegate, whether or
// not the cell is mutable.
func (s *state[T]) Fire(ch channel.Channel) {
	s.dispatch(ch, s.item, change.NoChange)
}

// Item returns the current item.
func (s *state[T]) Item() change.Item[T] {
	return s.item
}

// Get returns the current value. It returns a NotFound error if the cell
// is empty.
func (s *state[T]) Get() (T, error) {
	v, ok := s.item.Get()
	if !ok {
		return v, errors.NotFoundf("item of cell %q", s.id)
	}
	return v, nil
}

// OrElse returns the current value, or def if the cell is empty.
func (s *state[T]) OrElse(def T) T {
	return s.item.OrElse(def)
}

// OrZero returns the current value, or the zero value if the cell is
// empty.
func (s *state[T]) OrZero() T {
	return s.item.Value()
}

// IsPresent reports whether the cell holds an item.
func (s *state[T]) IsPresent() bool {
	return s.item.IsPresent()
}

// IsEmpty reports whether the cell is empty.
func (s *state[T]) IsEmpty() bool {
	return !s.item.IsPresent()
}

// Is reports whether the cell holds an item equal to v.
func (s *state[T]) Is(v T) bool {
	cur, ok := s.item.Get()
	return ok && s.equal(cur, v)
}

// ID returns the identifier given at construction.
func (s *state[T]) ID() string {
	return s.id
}

// Type returns the declared runtime type.
func (s *state[T]) Type() change.TypeTag {
	return s.tag
}

// AllowsNull reports whether the cell may be empty.
func (s *state[T]) AllowsNull() bool {
	return s.nullable
}

// IsMutable reports whether the item can be set.
func (s *state[T]) IsMutable() bool {
	return s.mutable
}

// Arena returns the arena resolving the owners of weak listeners.
func (s *state[T]) Arena() *owner.Arena {
	return s.listeners.Arena()
}

// OnChange registers fn for changes on ch. Listeners on channel.All see
// every change.
func (s *state[T]) OnChange(ch channel.Channel, fn func(Delegate[T])) registry.Handle {
	return s.listeners.Add(ch, fn)
}

// OnChangeWeak registers fn for changes on ch for as long as o is
// tracked in the cell's arena. The owner is handed to fn on each call;
// fn must not capture it.
func (s *state[T]) OnChangeWeak(o owner.Handle, ch channel.Channel, fn func(any, Delegate[T])) (registry.Handle, error) {
	h, err := s.listeners.AddOwned(o, ch, fn)
	return h, errors.Trace(err)
}

// Subscribe registers fn to be called on every change, whatever its
// channel.
func (s *state[T]) Subscribe(fn func()) registry.Handle {
	return s.listeners.Add(channel.All, func(Delegate[T]) {
		fn()
	})
}

// SubscribeWeak registers fn to be called on every change for as long as
// o is tracked in the cell's arena.
func (s *state[T]) SubscribeWeak(o owner.Handle, fn func(any)) (registry.Handle, error) {
	h, err := s.listeners.AddOwned(o, channel.All, func(v any, _ Delegate[T]) {
		fn(v)
	})
	return h, errors.Trace(err)
}

// Unsubscribe removes the listener identified by h.
func (s *state[T]) Unsubscribe(h registry.Handle) bool {
	return s.listeners.Remove(h)
}

// UnsubscribeAll removes every listener.
func (s *state[T]) UnsubscribeAll() {
	s.listeners.RemoveAll()
}

// NumListeners returns the number of registered listeners.
func (s *state[T]) NumListeners() int {
	return s.listeners.Len()
}

func (s *state[T]) String() string {
	if s.id == NoID {
		return fmt.Sprintf("cell(%s)", s.item)
	}
	return fmt.Sprintf("%s(%s)", s.id, s.item)
}
