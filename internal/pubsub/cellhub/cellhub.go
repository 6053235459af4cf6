// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cellhub publishes cell and sequence notifications onto a
// pubsub hub, so that code outside the goroutine owning a cell can
// follow its changes without touching the cell itself.
package cellhub

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/registry"
	"github.com/juju/cells/core/sequence"
)

var logger = loggo.GetLogger("cells.cellhub")

// Config holds the dependencies of a Publisher.
type Config struct {
	Hub *pubsub.SimpleHub
	// Origin is stamped on every published message.
	Origin string
}

// Validate returns an error if the config cannot create a Publisher.
func (config Config) Validate() error {
	if config.Hub == nil {
		return errors.NotValidf("nil Hub")
	}
	if config.Origin == "" {
		return errors.NotValidf("empty Origin")
	}
	return nil
}

// Publisher forwards notifications onto a hub.
type Publisher struct {
	hub    *pubsub.SimpleHub
	origin string
}

// NewPublisher returns a Publisher for the given config.
func NewPublisher(config Config) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Publisher{
		hub:    config.Hub,
		origin: config.Origin,
	}, nil
}

// CellSource is a cell or view whose notifications can be published.
type CellSource[T any] interface {
	OnChange(channel.Channel, func(cell.Delegate[T])) registry.Handle
}

// PublishCell publishes every notification src dispatches on ch. The
// returned handle unsubscribes the publisher from src.
func PublishCell[T any](p *Publisher, src CellSource[T], ch channel.Channel) registry.Handle {
	return src.OnChange(ch, func(d cell.Delegate[T]) {
		msg := NewCellChanged(p.origin, d)
		logger.Tracef("publishing %s for cell %q", msg.Change, msg.ID)
		_ = p.hub.Publish(CellChangedTopic, msg)
	})
}

// PublishSequence publishes every notification of src under the given
// id. The returned handle unsubscribes the publisher from src.
func PublishSequence[T any](p *Publisher, id string, src *sequence.Sequence[T]) registry.Handle {
	return src.OnChange(func(d sequence.Delegate[T]) {
		msg := NewSequenceChanged(p.origin, id, d)
		logger.Tracef("publishing %s for sequence %q", msg.Kind, id)
		_ = p.hub.Publish(SequenceChangedTopic, msg)
	})
}

// SubscribeCells calls fn for every published cell change whose id is
// in ids. An empty set matches every cell. The returned func
// unsubscribes.
func SubscribeCells(hub *pubsub.SimpleHub, ids set.Strings, fn func(CellChanged)) func() {
	return hub.Subscribe(CellChangedTopic, func(topic string, data interface{}) {
		msg, ok := data.(CellChanged)
		if !ok {
			logger.Errorf("unexpected data on %q: %T", topic, data)
			return
		}
		if !ids.IsEmpty() && !ids.Contains(msg.ID) {
			return
		}
		fn(msg)
	})
}

// SubscribeSequences calls fn for every published sequence change whose
// id is in ids. An empty set matches every sequence.
func SubscribeSequences(hub *pubsub.SimpleHub, ids set.Strings, fn func(SequenceChanged)) func() {
	return hub.Subscribe(SequenceChangedTopic, func(topic string, data interface{}) {
		msg, ok := data.(SequenceChanged)
		if !ok {
			logger.Errorf("unexpected data on %q: %T", topic, data)
			return
		}
		if !ids.IsEmpty() && !ids.Contains(msg.ID) {
			return
		}
		fn(msg)
	})
}

// NewCellChanged returns the message describing d.
func NewCellChanged[T any](origin string, d cell.Delegate[T]) CellChanged {
	return CellChanged{
		Origin:  origin,
		ID:      d.ID(),
		Channel: d.Channel().String(),
		Change:  d.Change().String(),
		Type:    d.Type().Name(),
		Old:     render(d.Old()),
		Current: render(d.Current()),
	}
}

// NewSequenceChanged returns the message describing d, a notification
// of the sequence identified by id.
func NewSequenceChanged[T any](origin, id string, d sequence.Delegate[T]) SequenceChanged {
	diff := d.Diff()
	start, ok := diff.Start()
	if !ok {
		start = -1
	}
	return SequenceChanged{
		Origin:  origin,
		ID:      id,
		Kind:    diff.Kind().String(),
		Start:   start,
		Size:    diff.Size(),
		Lineage: diff.Version().Lineage().String(),
		Version: diff.Version().Number(),
		Removed: renderAll(d.Removed()),
		Added:   renderAll(d.Added()),
	}
}

func render[T any](item change.Item[T]) string {
	if !item.IsPresent() {
		return ""
	}
	return item.String()
}

func renderAll[T any](s sequence.Snapshot[T]) []string {
	if s.Len() == 0 {
		return nil
	}
	out := make([]string, s.Len())
	for i, item := range s.Items() {
		out[i] = item.String()
	}
	return out
}
