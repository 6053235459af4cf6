// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cellhub

const (
	// CellChangedTopic is the topic cell changes are published on. The
	// data is a CellChanged.
	CellChangedTopic = "cells.cell.changed"

	// SequenceChangedTopic is the topic sequence changes are published
	// on. The data is a SequenceChanged.
	SequenceChangedTopic = "cells.sequence.changed"
)

// CellChanged describes a single notification of a cell. Items are
// rendered as text since subscribers may live in another process.
type CellChanged struct {
	// Origin identifies the publisher.
	Origin string `yaml:"origin"`
	// ID is the id of the cell that changed.
	ID string `yaml:"id"`
	// Channel is the channel the change originated on.
	Channel string `yaml:"channel"`
	// Change is the classification of the change.
	Change string `yaml:"change"`
	// Type is the declared type of the cell.
	Type    string `yaml:"type"`
	Old     string `yaml:"old,omitempty"`
	Current string `yaml:"current,omitempty"`
}

// SequenceChanged describes a single notification of a sequence.
type SequenceChanged struct {
	Origin string `yaml:"origin"`
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind"`
	// Start is -1 when the mutation did not touch a single contiguous
	// run of elements.
	Start   int      `yaml:"start"`
	Size    int      `yaml:"size"`
	Lineage string   `yaml:"lineage"`
	Version uint64   `yaml:"version"`
	Removed []string `yaml:"removed,omitempty"`
	Added   []string `yaml:"added,omitempty"`
}
