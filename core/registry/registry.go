// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package registry implements the per-cell channel registry that keeps
// listener registrations and dispatches change notifications to them.
package registry

import (
	"fmt"
	"slices"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
)

var logger = loggo.GetLogger("cells.registry")

// Config holds the optional collaborators of a Registry.
type Config struct {
	// Logger receives listener failures and sweep traces. It defaults to
	// the package logger.
	Logger Logger

	// Recorder is told about dispatches, sweeps and recovered panics.
	Recorder Recorder

	// Executor, if set, runs every dispatch batch.
	Executor Executor

	// Arena resolves the owners of weak registrations. It defaults to
	// owner.Default.
	Arena *owner.Arena

	// Component labels the registry in logs and recorded metrics.
	Component string
}

// Handle identifies a registration for removal. The zero Handle refers to
// no registration.
type Handle struct {
	id uint64
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.id == 0
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("registration-%d", h.id)
}

type entry[D any] struct {
	id      uint64
	channel channel.Channel
	owned   bool
	owner   owner.Handle
	fn      func(any, D)
	removed bool
}

// Registry maps channels to ordered listener registrations carrying
// delegates of type D. It is not safe for concurrent use; a registry
// belongs to the single cell that dispatches through it.
type Registry[D any] struct {
	logger    Logger
	recorder  Recorder
	executor  Executor
	arena     *owner.Arena
	component string

	lastID   uint64
	order    []channel.Channel
	channels map[channel.Channel][]*entry[D]
	byID     map[uint64]*entry[D]
}

// New returns an empty registry.
func New[D any](config Config) *Registry[D] {
	r := &Registry[D]{
		logger:    config.Logger,
		recorder:  config.Recorder,
		executor:  config.Executor,
		arena:     config.Arena,
		component: config.Component,
		channels:  make(map[channel.Channel][]*entry[D]),
		byID:      make(map[uint64]*entry[D]),
	}
	if r.logger == nil {
		r.logger = logger
	}
	if r.recorder == nil {
		r.recorder = noopRecorder{}
	}
	if r.arena == nil {
		r.arena = owner.Default
	}
	if r.component == "" {
		r.component = "registry"
	}
	return r
}

// Arena returns the arena used to resolve owners.
func (r *Registry[D]) Arena() *owner.Arena {
	return r.arena
}

// Add registers fn on ch. The registration lives until it is removed.
func (r *Registry[D]) Add(ch channel.Channel, fn func(D)) Handle {
	r.Sweep()
	return r.add(&entry[D]{
		channel: ch,
		fn: func(_ any, d D) {
			fn(d)
		},
	})
}

// AddOwned registers fn on ch for as long as o refers to a tracked owner.
// The owner is passed to fn on every call, so fn need not capture it.
func (r *Registry[D]) AddOwned(o owner.Handle, ch channel.Channel, fn func(any, D)) (Handle, error) {
	if !r.arena.Alive(o) {
		return Handle{}, errors.NotValidf("released owner")
	}
	r.Sweep()
	return r.add(&entry[D]{
		channel: ch,
		owned:   true,
		owner:   o,
		fn:      fn,
	}), nil
}

func (r *Registry[D]) add(e *entry[D]) Handle {
	r.lastID++
	e.id = r.lastID
	if _, ok := r.channels[e.channel]; !ok {
		r.order = append(r.order, e.channel)
	}
	r.channels[e.channel] = append(r.channels[e.channel], e)
	r.byID[e.id] = e
	return Handle{id: e.id}
}

// Remove drops the registration identified by h. It reports whether the
// registration was still present.
func (r *Registry[D]) Remove(h Handle) bool {
	e, ok := r.byID[h.id]
	if !ok {
		return false
	}
	e.removed = true
	delete(r.byID, h.id)
	r.channels[e.channel] = slices.DeleteFunc(r.channels[e.channel], func(x *entry[D]) bool {
		return x == e
	})
	return true
}

// RemoveAll drops every registration regardless of owner liveness.
func (r *Registry[D]) RemoveAll() {
	for _, e := range r.byID {
		e.removed = true
	}
	clear(r.byID)
	clear(r.channels)
	r.order = nil
}

// Len returns the number of registrations, including any whose owner has
// been released but which have not yet been swept.
func (r *Registry[D]) Len() int {
	return len(r.byID)
}

// Sweep drops every registration whose owner has been released and
// returns how many were dropped.
func (r *Registry[D]) Sweep() int {
	var swept int
	for _, ch := range r.order {
		swept += r.sweep(ch)
	}
	return swept
}

func (r *Registry[D]) sweep(ch channel.Channel) int {
	entries := r.channels[ch]
	var swept int
	for _, e := range entries {
		if e.owned && !r.arena.Alive(e.owner) {
			e.removed = true
			delete(r.byID, e.id)
			swept++
		}
	}
	if swept == 0 {
		return 0
	}
	r.channels[ch] = slices.DeleteFunc(entries, func(e *entry[D]) bool {
		return e.removed
	})
	r.logger.Tracef("%s: swept %d registrations on %q", r.component, swept, ch)
	r.recorder.RecordSweep(r.component, swept)
	return swept
}

// Dispatch notifies the listeners of ch, then those of the broadcast
// channel, in registration order. Dispatching on the broadcast channel
// notifies every listener. The delegate is built by mk at most once, and
// only if there is a listener to receive it. Dispatch returns the number
// of listeners in the batch.
//
// Listeners registered during the dispatch are not part of the batch.
// Listeners removed during the dispatch are skipped if not yet called.
func (r *Registry[D]) Dispatch(ch channel.Channel, mk func() D) int {
	batch := r.collect(ch)
	if len(batch) == 0 {
		return 0
	}
	d := mk()
	run := func() {
		for _, e := range batch {
			if e.removed {
				continue
			}
			var o any
			if e.owned {
				var ok bool
				if o, ok = r.arena.Resolve(e.owner); !ok {
					continue
				}
			}
			r.invoke(e, o, d)
		}
	}
	r.recorder.RecordDispatch(r.component, len(batch))
	if r.executor != nil {
		r.executor.Run(run)
	} else {
		run()
	}
	return len(batch)
}

func (r *Registry[D]) collect(ch channel.Channel) []*entry[D] {
	var batch []*entry[D]
	if ch.IsBroadcast() {
		for _, c := range slices.Clone(r.order) {
			r.sweep(c)
			batch = append(batch, r.channels[c]...)
		}
		return batch
	}
	r.sweep(ch)
	batch = append(batch, r.channels[ch]...)
	r.sweep(channel.All)
	return append(batch, r.channels[channel.All]...)
}

func (r *Registry[D]) invoke(e *entry[D], o any, d D) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("%s: listener %d on %q panicked: %v", r.component, e.id, e.channel, p)
			r.recorder.RecordPanic(r.component)
		}
	}()
	e.fn(o, d)
}
