// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package owner tracks the lifetime of subscription owners.
//
// An owner is any value whose lifetime bounds a set of listener
// registrations. Instead of relying on the garbage collector, an owner is
// tracked in an Arena and referred to by a generation-checked Handle.
// Once the owner is released, every registration bound to it is
// considered dead and is dropped by the next sweep of the registry
// holding it.
package owner

import (
	"sync"
)

// Handle refers to an owner tracked in an Arena. The zero Handle never
// resolves.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

type slot struct {
	value      any
	generation uint32
	live       bool
}

// Arena holds owners and hands out Handles to them. Released slots are
// reused with a bumped generation so stale handles never resolve to a
// new owner. An Arena is safe for concurrent use: owners are commonly
// released from a different goroutine than the one dispatching.
type Arena struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Default is the arena used by cells constructed without an explicit
// one.
var Default = NewArena()

// Track starts tracking value and returns a handle to it.
func (a *Arena) Track(value any) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[index]
	s.generation++
	if s.generation == 0 {
		// Skip the zero generation on wrap around.
		s.generation = 1
	}
	s.value = value
	s.live = true
	a.live++
	return Handle{index: index, generation: s.generation}
}

// Resolve returns the owner referred to by h, if it is still tracked.
func (a *Arena) Resolve(h Handle) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.lookup(h)
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Alive reports whether h still refers to a tracked owner.
func (a *Arena) Alive(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.lookup(h)
	return ok
}

// Release stops tracking the owner referred to by h. It returns false if
// h was already stale. Releasing is idempotent.
func (a *Arena) Release(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.lookup(h)
	if !ok {
		return false
	}
	s.value = nil
	s.live = false
	a.free = append(a.free, h.index)
	a.live--
	return true
}

// Len returns the number of owners currently tracked.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

func (a *Arena) lookup(h Handle) (*slot, bool) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return s, true
}

// Resolve returns the owner referred to by h as an O. It reports false
// if the owner was released or is not an O.
func Resolve[O any](a *Arena, h Handle) (O, bool) {
	v, ok := a.Resolve(h)
	if !ok {
		var zero O
		return zero, false
	}
	o, ok := v.(O)
	return o, ok
}
