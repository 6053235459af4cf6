// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence

import (
	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

type config struct {
	tag      change.TypeTag
	equal    any
	logger   cell.Logger
	recorder registry.Recorder
	executor registry.Executor
	arena    *owner.Arena
}

// Option configures a sequence at construction.
type Option func(*config)

// WithType narrows the runtime type accepted for elements of a sequence
// declared over an interface type.
func WithType(tag change.TypeTag) Option {
	return func(c *config) {
		c.tag = tag
	}
}

// WithEquality overrides the equality used to compare elements.
func WithEquality[T any](equal change.Equality[T]) Option {
	return func(c *config) {
		c.equal = equal
	}
}

// WithLogger sets the logger used for listener and view failures.
func WithLogger(logger cell.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecorder sets the recorder told about dispatch activity.
func WithRecorder(recorder registry.Recorder) Option {
	return func(c *config) {
		c.recorder = recorder
	}
}

// WithExecutor hands every notification batch to executor.
func WithExecutor(executor registry.Executor) Option {
	return func(c *config) {
		c.executor = executor
	}
}

// WithArena sets the arena in which weak listener owners are tracked.
func WithArena(arena *owner.Arena) Option {
	return func(c *config) {
		c.arena = arena
	}
}
