// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence

// Delegate describes a single notification from a sequence.
type Delegate[T any] struct {
	diff    Diff
	removed Snapshot[T]
	added   Snapshot[T]
	result  Snapshot[T]
}

// Diff returns the diff of the mutation.
func (d Delegate[T]) Diff() Diff {
	return d.diff
}

// Kind returns the kind of the mutation.
func (d Delegate[T]) Kind() Kind {
	return d.diff.kind
}

// Index returns the first affected index, if the mutation touched a
// single contiguous run.
func (d Delegate[T]) Index() (int, bool) {
	return d.diff.Start()
}

// Removed returns the items the mutation removed or replaced.
func (d Delegate[T]) Removed() Snapshot[T] {
	return d.removed
}

// Added returns the items the mutation inserted.
func (d Delegate[T]) Added() Snapshot[T] {
	return d.added
}

// Result returns the items of the sequence after the mutation.
func (d Delegate[T]) Result() Snapshot[T] {
	return d.result
}
