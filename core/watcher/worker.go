// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"
)

// NotifyHandler defines the operation of a NotifyWorker.
type NotifyHandler interface {
	// SetUp is called once when creating a NotifyWorker. It must return a
	// NotifyWatcher or an error. The NotifyWorker stops the returned
	// watcher.
	SetUp(context.Context) (NotifyWatcher, error)

	// Handle is called whenever a value is received from the watcher
	// returned by SetUp. If it returns an error, the NotifyWorker is
	// stopped. The context is canceled when the worker is killed; an
	// aborted Handle should not return an error.
	Handle(context.Context) error

	// TearDown is called once when stopping a NotifyWorker, whether or not
	// SetUp succeeded.
	TearDown() error
}

// NotifyConfig holds the direct dependencies of a NotifyWorker.
type NotifyConfig struct {
	Handler NotifyHandler
}

// Validate returns an error if the config cannot start a NotifyWorker.
func (config NotifyConfig) Validate() error {
	if config.Handler == nil {
		return errors.NotValidf("nil Handler")
	}
	return nil
}

// NotifyWorker is a worker that runs a NotifyHandler against the
// watcher it sets up.
type NotifyWorker struct {
	catacomb catacomb.Catacomb
	config   NotifyConfig
}

// NewNotifyWorker starts a new worker that runs a NotifyHandler.
func NewNotifyWorker(config NotifyConfig) (*NotifyWorker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	nw := &NotifyWorker{
		config: config,
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &nw.catacomb,
		Work: nw.loop,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return nw, nil
}

func (nw *NotifyWorker) loop() (err error) {
	changes := nw.setUp()
	defer func() { nw.tearDown(err) }()

	for {
		select {
		case <-nw.catacomb.Dying():
			return nw.catacomb.ErrDying()
		case _, ok := <-changes:
			if !ok {
				return errors.New("change channel closed")
			}
			if err := nw.dispatchChange(); err != nil {
				return errors.Trace(err)
			}
		}
	}
}

// setUp calls the handler's SetUp, registers the returned watcher with
// the catacomb and returns its changes channel. Any error kills the
// worker and a nil channel is returned.
func (nw *NotifyWorker) setUp() <-chan struct{} {
	ctx, cancel := nw.scopedContext()
	defer cancel()

	w, err := nw.config.Handler.SetUp(ctx)
	if err != nil {
		nw.catacomb.Kill(err)
	}
	if w == nil {
		nw.catacomb.Kill(errors.New("handler returned nil watcher"))
	} else if err := nw.catacomb.Add(w); err != nil {
		nw.catacomb.Kill(err)
	} else {
		return w.Changes()
	}
	return nil
}

// tearDown kills the worker with err, then with any error returned by
// the handler's TearDown.
func (nw *NotifyWorker) tearDown(err error) {
	nw.catacomb.Kill(err)
	if err := nw.config.Handler.TearDown(); err != nil {
		logger.Debugf("notify handler tear down: %v", err)
		nw.catacomb.Kill(err)
	}
}

func (nw *NotifyWorker) dispatchChange() error {
	ctx, cancel := nw.scopedContext()
	defer cancel()

	err := nw.config.Handler.Handle(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return errors.Trace(err)
}

// Kill is part of the worker.Worker interface.
func (nw *NotifyWorker) Kill() {
	nw.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (nw *NotifyWorker) Wait() error {
	return nw.catacomb.Wait()
}

// Report returns a summary of the worker for the engine report.
func (nw *NotifyWorker) Report() map[string]any {
	report := map[string]any{
		"type": "NotifyWorker",
	}
	if r, ok := nw.config.Handler.(interface{ Report() map[string]any }); ok {
		report["handler"] = r.Report()
	}
	return report
}

// scopedContext returns a context canceled when the worker dies.
func (nw *NotifyWorker) scopedContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-nw.catacomb.Dying():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
