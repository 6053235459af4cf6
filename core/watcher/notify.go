// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"sync"

	"github.com/juju/errors"
	"gopkg.in/tomb.v2"
)

type notifyWatcher struct {
	tomb    tomb.Tomb
	changes chan struct{}
	// Sends happen on the source's goroutine while Kill may come from
	// any other, so sending and closing are guarded by mu.
	closed bool
	mu     sync.Mutex
}

// NewNotifyWatcher returns a watcher signalling every change of src.
// Changes are coalesced: any number of changes between two receives
// produce a single event.
func NewNotifyWatcher(src Notifier) (NotifyWatcher, error) {
	w := &notifyWatcher{
		changes: make(chan struct{}, 1),
	}
	// The initial event; changes is buffered so this doesn't block.
	w.changes <- struct{}{}

	arena := src.Arena()
	h := arena.Track(w)
	_, err := src.SubscribeWeak(h, func(o any) {
		o.(*notifyWatcher).onChange()
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

func (w *notifyWatcher) onChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	select {
	case w.changes <- struct{}{}:
	default:
		// A change is already pending.
	}
}

// Changes is part of the Watcher interface.
func (w *notifyWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *notifyWatcher) Kill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	// Die before closing so readers never see a closed channel on a live
	// watcher.
	w.tomb.Kill(nil)
	w.closed = true
	close(w.changes)
}

// Wait is part of the worker.Worker interface.
func (w *notifyWatcher) Wait() error {
	return w.tomb.Wait()
}
