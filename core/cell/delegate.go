// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"fmt"

	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
)

// Delegate describes a single notification from a cell. It is built once
// per notification and shared by every listener of the batch.
type Delegate[T any] struct {
	channel channel.Channel
	id      string
	kind    change.Kind
	old     change.Item[T]
	current change.Item[T]
	tag     change.TypeTag
}

// Channel returns the channel the change originated on.
func (d Delegate[T]) Channel() channel.Channel {
	return d.channel
}

// ID returns the id of the notifying cell.
func (d Delegate[T]) ID() string {
	return d.id
}

// Change returns the classification of the change.
func (d Delegate[T]) Change() change.Kind {
	return d.kind
}

// Current returns the item held after the change.
func (d Delegate[T]) Current() change.Item[T] {
	return d.current
}

// Old returns the item held before the change.
func (d Delegate[T]) Old() change.Item[T] {
	return d.old
}

// Type returns the declared type of the notifying cell.
func (d Delegate[T]) Type() change.TypeTag {
	return d.tag
}

func (d Delegate[T]) String() string {
	return fmt.Sprintf("%s on %s: %s -> %s", d.kind, d.channel, d.old, d.current)
}
