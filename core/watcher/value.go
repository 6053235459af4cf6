// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"sync"

	"github.com/juju/errors"
	"gopkg.in/tomb.v2"

	"github.com/juju/cells/core/change"
)

// ValueSource is a notifier which also exposes its current item, such as
// a cell or a view.
type ValueSource[T any] interface {
	Notifier
	Item() change.Item[T]
}

type valueWatcher[T any] struct {
	tomb    tomb.Tomb
	src     ValueSource[T]
	changes chan change.Item[T]
	closed  bool
	mu      sync.Mutex
}

// NewValueWatcher returns a watcher reporting the item held by src. The
// current item is sent immediately. A slow reader only ever sees the
// latest item; intermediate items are dropped.
func NewValueWatcher[T any](src ValueSource[T]) (Watcher[change.Item[T]], error) {
	w := &valueWatcher[T]{
		src:     src,
		changes: make(chan change.Item[T], 1),
	}
	w.changes <- src.Item()

	arena := src.Arena()
	h := arena.Track(w)
	_, err := src.SubscribeWeak(h, func(o any) {
		o.(*valueWatcher[T]).onChange()
	})
	if err != nil {
		arena.Release(h)
		return nil, errors.Trace(err)
	}
	w.tomb.Go(func() error {
		<-w.tomb.Dying()
		arena.Release(h)
		return nil
	})
	return w, nil
}

func (w *valueWatcher[T]) onChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	// Replace any unread item with the latest one.
	select {
	case <-w.changes:
	default:
	}
	w.changes <- w.src.Item()
}

// Changes is part of the Watcher interface.
func (w *valueWatcher[T]) Changes() <-chan change.Item[T] {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *valueWatcher[T]) Kill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.tomb.Kill(nil)
	w.closed = true
	close(w.changes)
}

// Wait is part of the worker.Worker interface.
func (w *valueWatcher[T]) Wait() error {
	return w.tomb.Wait()
}
