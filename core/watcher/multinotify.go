// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"gopkg.in/tomb.v2"
)

// DefaultCoalesceDelay is how long a MultiNotifyWatcher waits after an
// event before reporting it, so that bursts collapse into one event.
const DefaultCoalesceDelay = 10 * time.Millisecond

// MultiNotifyConfig holds the dependencies of a MultiNotifyWatcher.
type MultiNotifyConfig struct {
	Clock    clock.Clock
	Delay    time.Duration
	Watchers []NotifyWatcher
}

// Validate returns an error if the config cannot start a
// MultiNotifyWatcher.
func (config MultiNotifyConfig) Validate() error {
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Delay < 0 {
		return errors.NotValidf("negative Delay")
	}
	if len(config.Watchers) == 0 {
		return errors.NotValidf("empty Watchers")
	}
	for i, w := range config.Watchers {
		if w == nil {
			return errors.NotValidf("nil watcher %d", i)
		}
	}
	return nil
}

// MultiNotifyWatcher implements NotifyWatcher, combining
// multiple NotifyWatchers.
type MultiNotifyWatcher struct {
	tomb     tomb.Tomb
	clock    clock.Clock
	delay    time.Duration
	watchers []NotifyWatcher
	changes  chan struct{}
}

// NewMultiNotifyWatcher creates a NotifyWatcher that combines each of the
// configured watchers. Each watcher's initial event is consumed, and a
// single initial event is sent. Subsequent events are coalesced over the
// configured delay.
func NewMultiNotifyWatcher(config MultiNotifyConfig) (*MultiNotifyWatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	m := &MultiNotifyWatcher{
		clock:    config.Clock,
		delay:    config.Delay,
		watchers: config.Watchers,
		changes:  make(chan struct{}),
	}
	var wg sync.WaitGroup
	wg.Add(len(m.watchers))
	staging := make(chan struct{})
	for _, w := range m.watchers {
		// Consume the first event of each watcher.
		<-w.Changes()
		go func() {
			defer wg.Done()
			_ = w.Wait()
		}()
		go copyEvents(staging, w.Changes(), &m.tomb)
	}
	m.tomb.Go(func() error {
		m.loop(staging)
		wg.Wait()
		return nil
	})
	return m, nil
}

// loop copies events from the staging channel to the output channel,
// coalescing events by waiting for the delay between receiving and
// sending.
func (m *MultiNotifyWatcher) loop(in <-chan struct{}) {
	defer close(m.changes)
	// out starts as m.changes to send the initial event.
	out := m.changes
	var timer <-chan time.Time
	for {
		select {
		case <-m.tomb.Dying():
			return
		case <-in:
			if timer == nil {
				timer = m.clock.After(m.delay)
			}
		case <-timer:
			timer = nil
			out = m.changes
		case out <- struct{}{}:
			out = nil
		}
	}
}

// copyEvents copies channel events from in to out, coalescing.
func copyEvents(out chan<- struct{}, in <-chan struct{}, t *tomb.Tomb) {
	var outC chan<- struct{}
	for {
		select {
		case <-t.Dying():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			outC = out
		case outC <- struct{}{}:
			outC = nil
		}
	}
}

// Kill is part of the worker.Worker interface. It also kills every
// combined watcher.
func (m *MultiNotifyWatcher) Kill() {
	m.tomb.Kill(nil)
	for _, w := range m.watchers {
		w.Kill()
	}
}

// Wait is part of the worker.Worker interface.
func (m *MultiNotifyWatcher) Wait() error {
	return m.tomb.Wait()
}

// Changes is part of the Watcher interface.
func (m *MultiNotifyWatcher) Changes() NotifyChannel {
	return m.changes
}
