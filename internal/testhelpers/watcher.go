// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testhelpers

import (
	"time"

	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"
)

// Watcher is the subset of a watcher the assertions need.
type Watcher[T any] interface {
	Kill()
	Wait() error
	Changes() <-chan T
}

// WatcherC embeds a gocheck.C and adds methods to help verify the
// behaviour of a watcher reporting values of type T.
type WatcherC[T any] struct {
	*gc.C
	Watcher Watcher[T]
}

// NewWatcherC returns a WatcherC checking w.
func NewWatcherC[T any](c *gc.C, w Watcher[T]) WatcherC[T] {
	return WatcherC[T]{C: c, Watcher: w}
}

// AssertNoChange fails if the watcher reports anything within ShortWait.
func (c WatcherC[T]) AssertNoChange() {
	select {
	case v, ok := <-c.Watcher.Changes():
		c.Fatalf("watcher sent unexpected change: (%v, %v)", v, ok)
	case <-time.After(ShortWait):
	}
}

// AssertChange waits for a single change and returns it.
func (c WatcherC[T]) AssertChange() T {
	select {
	case v, ok := <-c.Watcher.Changes():
		c.Assert(ok, jc.IsTrue)
		return v
	case <-time.After(LongWait):
		c.Fatalf("watcher did not send change")
	}
	panic("unreachable")
}

// AssertOneChange waits for a change and checks that no other follows.
func (c WatcherC[T]) AssertOneChange() T {
	v := c.AssertChange()
	c.AssertNoChange()
	return v
}

// AssertClosed checks that the changes channel has been closed. Changes
// already buffered before the close are discarded.
func (c WatcherC[T]) AssertClosed() {
	timeout := time.After(LongWait)
	for {
		select {
		case _, ok := <-c.Watcher.Changes():
			if !ok {
				return
			}
		case <-timeout:
			c.Fatalf("watcher not closed")
		}
	}
}

// AssertKilled kills the watcher, checks that it stops cleanly and that
// its changes channel is closed.
func (c WatcherC[T]) AssertKilled() {
	workertest.CleanKill(c.C, c.Watcher)
	c.AssertClosed()
}
