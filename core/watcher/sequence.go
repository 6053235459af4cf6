// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"sync"

	"github.com/juju/errors"
	"gopkg.in/tomb.v2"

	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
	"github.com/juju/cells/core/sequence"
)

// SequenceSource is a sequence whose notifications can be watched.
type SequenceSource[T any] interface {
	Arena() *owner.Arena
	OnChangeWeak(owner.Handle, func(any, sequence.Delegate[T])) (registry.Handle, error)
}

type sequenceWatcher[T any] struct {
	tomb    tomb.Tomb
	changes chan []sequence.Delegate[T]

	mu      sync.Mutex
	pending []sequence.Delegate[T]
	wake    chan struct{}
}

// NewSequenceWatcher returns a watcher reporting batches of sequence
// notifications, in the order the sequence dispatched them. An empty
// batch is sent first to indicate that the watch is active. No
// notification is dropped, so the diffs in a batch can be replayed.
func NewSequenceWatcher[T any](src SequenceSource[T]) (Watcher[[]sequence.Delegate[T]], error) {
	w := &sequenceWatcher[T]{
		changes: make(chan []sequence.Delegate[T]),
		wake:    make(chan struct{}, 1),
	}

	arena := src.Arena()
	h := arena.Track(w)
	_, err := src.OnChangeWeak(h, func(o any, d sequence.Delegate[T]) {
		o.(*sequenceWatcher[T]).onChange(d)
	})
	if err != nil {
		arena.Release(h)
		return nil, errors.Trace(err)
	}
	w.tomb.Go(func() error {
		defer arena.Release(h)
		return w.loop()
	})
	return w, nil
}

func (w *sequenceWatcher[T]) onChange(d sequence.Delegate[T]) {
	w.mu.Lock()
	w.pending = append(w.pending, d)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *sequenceWatcher[T]) take() []sequence.Delegate[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := w.pending
	w.pending = nil
	return batch
}

func (w *sequenceWatcher[T]) loop() error {
	defer close(w.changes)

	// The initial batch is empty.
	out := w.changes
	batch := []sequence.Delegate[T]{}
	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case <-w.wake:
			batch = append(batch, w.take()...)
			if len(batch) > 0 {
				out = w.changes
			}
		case out <- batch:
			batch = nil
			out = nil
		}
	}
}

// Changes is part of the Watcher interface.
func (w *sequenceWatcher[T]) Changes() <-chan []sequence.Delegate[T] {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *sequenceWatcher[T]) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *sequenceWatcher[T]) Wait() error {
	return w.tomb.Wait()
}
