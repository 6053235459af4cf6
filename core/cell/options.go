// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"regexp"

	"github.com/juju/errors"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

// NoID is the id of a cell created without one.
const NoID = ""

var validID = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)

// Logger is the logging interface used by cells. It is satisfied by
// loggo.Logger.
type Logger interface {
	Errorf(string, ...interface{})
	Warningf(string, ...interface{})
	Debugf(string, ...interface{})
	Tracef(string, ...interface{})
}

type config struct {
	id       string
	tag      change.TypeTag
	equal    any
	logger   Logger
	recorder registry.Recorder
	executor registry.Executor
	arena    *owner.Arena
	err      error
}

// Option configures a cell at construction.
type Option func(*config)

// WithID attaches an opaque identifier to the cell. Identifiers are made
// of ASCII letters, digits and underscores.
func WithID(id string) Option {
	return func(c *config) {
		if !validID.MatchString(id) {
			c.err = errors.NotValidf("cell id %q", id)
			return
		}
		c.id = id
	}
}

// WithType narrows the runtime type accepted by a cell declared over an
// interface type.
func WithType(tag change.TypeTag) Option {
	return func(c *config) {
		c.tag = tag
	}
}

// WithEquality overrides the equality used to classify changes.
func WithEquality[T any](equal change.Equality[T]) Option {
	return func(c *config) {
		c.equal = equal
	}
}

// WithLogger sets the logger used for listener and view failures.
func WithLogger(logger Logger) Option {
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

// WithExecutor hands every notification batch to executor instead of
// running it before the mutating call returns.
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

func newConfig(opts []Option) (config, error) {
	cfg := config{
		id:     NoID,
		logger: logger,
		arena:  owner.Default,
	}
	for _, opt := range opts {
		opt(&cfg)
		if cfg.err != nil {
			return config{}, cfg.err
		}
	}
	return cfg, nil
}
