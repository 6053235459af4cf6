// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

// Logger is the logging interface used by a Registry. It is satisfied by
// loggo.Logger.
type Logger interface {
	Errorf(string, ...interface{})
	Warningf(string, ...interface{})
	Debugf(string, ...interface{})
	Tracef(string, ...interface{})
}

// Recorder is notified of dispatch activity, typically to feed metrics.
type Recorder interface {
	// RecordDispatch is called once per dispatched batch with the number
	// of listeners the batch held.
	RecordDispatch(component string, listeners int)

	// RecordSweep is called with the number of registrations dropped
	// because their owner was released.
	RecordSweep(component string, swept int)

	// RecordPanic is called for every listener panic recovered during
	// dispatch.
	RecordPanic(component string)
}

// Executor runs a dispatch batch. A nil Executor runs the batch on the
// calling goroutine before Dispatch returns.
type Executor interface {
	Run(func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(func())

// Run calls f(fn).
func (f ExecutorFunc) Run(fn func()) {
	f(fn)
}

type noopRecorder struct{}

func (noopRecorder) RecordDispatch(string, int) {}
func (noopRecorder) RecordSweep(string, int)    {}
func (noopRecorder) RecordPanic(string)         {}
