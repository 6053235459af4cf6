// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package watcher bridges cells, sequences and events to goroutines
// other than the one mutating them.
//
// A watcher is a worker that reports changes on a channel. Watchers are
// created on the goroutine that owns the watched source. Killing a
// watcher is safe from any goroutine: it releases the watcher's owner
// handle, and the source drops the registration on its next
// notification or registration.
package watcher

import (
	"github.com/juju/loggo"
	"github.com/juju/worker/v4"

	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

var logger = loggo.GetLogger("cells.watcher")

// Watcher is a worker that reports changes of type T.
type Watcher[T any] interface {
	worker.Worker
	Changes() <-chan T
}

// NotifyChannel receives a single value to indicate that the watch is
// active, and subsequent values whenever the source changes.
type NotifyChannel = <-chan struct{}

// NotifyWatcher sends a single value to indicate that the watch is
// active, and subsequent values whenever the source changes.
type NotifyWatcher = Watcher[struct{}]

// Notifier is a source of argument-less change notifications, such as a
// cell, a view, a sequence or an event.
type Notifier interface {
	Arena() *owner.Arena
	SubscribeWeak(owner.Handle, func(any)) (registry.Handle, error)
}
