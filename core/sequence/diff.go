// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind describes the structural mutation a Diff records.
type Kind int

const (
	NoChange Kind = iota
	Add
	Remove
	Retain
	Set
	Clear
	Sort
	Distinct
	Reverse
)

var kindNames = map[Kind]string{
	NoChange: "no-change",
	Add:      "add",
	Remove:   "remove",
	Retain:   "retain",
	Set:      "set",
	Clear:    "clear",
	Sort:     "sort",
	Distinct: "distinct",
	Reverse:  "reverse",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return NoChange, false
}

// Version places a diff in the history of a sequence. Every diff a
// sequence dispatches carries the next number of the sequence's lineage.
type Version struct {
	lineage uuid.UUID
	number  uint64
}

// Lineage identifies the sequence the diff came from.
func (v Version) Lineage() uuid.UUID {
	return v.lineage
}

// Number is the position of the diff within its lineage, starting at 1.
func (v Version) Number() uint64 {
	return v.number
}

func (v Version) String() string {
	return fmt.Sprintf("%s#%d", v.lineage, v.number)
}

// Diff describes how one mutation altered a sequence.
type Diff struct {
	kind     Kind
	start    int
	hasStart bool
	size     int
	version  Version
}

// Kind returns the kind of mutation.
func (d Diff) Kind() Kind {
	return d.kind
}

// Start returns the first index of the affected run and true when the
// mutation touched a single contiguous run of indices. Otherwise the
// whole sequence should be treated as changed.
func (d Diff) Start() (int, bool) {
	return d.start, d.hasStart
}

// Size returns the number of elements the mutation affected.
func (d Diff) Size() int {
	return d.size
}

// Version returns the position of the diff in its sequence's history.
func (d Diff) Version() Version {
	return d.version
}

// IsDirectSuccessorOf reports whether d immediately follows previous in
// the same sequence, with no diff in between.
func (d Diff) IsDirectSuccessorOf(previous Diff) bool {
	return d.version.lineage == previous.version.lineage &&
		d.version.number == previous.version.number+1
}

func (d Diff) String() string {
	if d.hasStart {
		return fmt.Sprintf("%s{start=%d, size=%d}", d.kind, d.start, d.size)
	}
	return fmt.Sprintf("%s{size=%d}", d.kind, d.size)
}

func rangeDiff(kind Kind, start, size int) Diff {
	if size == 0 {
		return Diff{kind: NoChange}
	}
	return Diff{kind: kind, start: start, hasStart: true, size: size}
}

func wholeDiff(kind Kind, size int) Diff {
	return Diff{kind: kind, size: size}
}

// run tracks whether the indices fed to it in ascending order form a
// single contiguous run.
type run struct {
	start, last, count int
	broken             bool
}

func (r *run) add(i int) {
	if r.count == 0 {
		r.start = i
	} else if i != r.last+1 {
		r.broken = true
	}
	r.last = i
	r.count++
}

func (r run) diff(kind Kind) Diff {
	if r.count == 0 {
		return Diff{kind: NoChange}
	}
	if r.broken {
		return wholeDiff(kind, r.count)
	}
	return rangeDiff(kind, r.start, r.count)
}
