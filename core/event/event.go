// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package event provides argument-less events that listeners can
// subscribe to.
package event

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

var logger = loggo.GetLogger("cells.event")

// Option configures an Event.
type Option func(*registry.Config)

// WithLogger sets the logger told about listener panics.
func WithLogger(logger registry.Logger) Option {
	return func(c *registry.Config) {
		c.Logger = logger
	}
}

// WithRecorder sets the recorder told about dispatch activity.
func WithRecorder(recorder registry.Recorder) Option {
	return func(c *registry.Config) {
		c.Recorder = recorder
	}
}

// WithArena sets the arena in which weak listener owners are tracked.
func WithArena(arena *owner.Arena) Option {
	return func(c *registry.Config) {
		c.Arena = arena
	}
}

// Event notifies its listeners every time it is fired.
type Event struct {
	listeners *registry.Registry[struct{}]
}

// New returns an event whose listeners run before Fire returns.
func New(opts ...Option) *Event {
	return Using(nil, opts...)
}

// Using returns an event whose listeners are run by executor.
func Using(executor registry.Executor, opts ...Option) *Event {
	cfg := registry.Config{
		Logger:    logger,
		Executor:  executor,
		Component: "event",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Event{
		listeners: registry.New[struct{}](cfg),
	}
}

// Fire calls every listener in subscription order.
func (e *Event) Fire() {
	e.listeners.Dispatch(channel.All, func() struct{} {
		return struct{}{}
	})
}

// Subscribe registers fn to be called every time the event fires.
func (e *Event) Subscribe(fn func()) registry.Handle {
	return e.listeners.Add(channel.All, func(struct{}) {
		fn()
	})
}

// SubscribeWeak registers fn for as long as o is tracked in the event's
// arena.
func (e *Event) SubscribeWeak(o owner.Handle, fn func(any)) (registry.Handle, error) {
	h, err := e.listeners.AddOwned(o, channel.All, func(v any, _ struct{}) {
		fn(v)
	})
	return h, errors.Trace(err)
}

// Unsubscribe removes the listener identified by h.
func (e *Event) Unsubscribe(h registry.Handle) bool {
	return e.listeners.Remove(h)
}

// UnsubscribeAll removes every listener.
func (e *Event) UnsubscribeAll() {
	e.listeners.RemoveAll()
}

// Arena returns the arena resolving the owners of weak listeners.
func (e *Event) Arena() *owner.Arena {
	return e.listeners.Arena()
}

// Len returns the number of listeners.
func (e *Event) Len() int {
	return e.listeners.Len()
}
