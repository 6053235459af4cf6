// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package change

// Kind describes how the item held by a cell changed between two
// observations.
type Kind int

const (
	// NoChange indicates that the old and new items are value-equal.
	// Delegates of this kind are only delivered when a change is fired
	// explicitly.
	NoChange Kind = iota

	// ValueChanged indicates that both items are present and differ by
	// value.
	ValueChanged

	// BecameAbsent indicates that a present item was replaced by an
	// absent one.
	BecameAbsent

	// BecamePresent indicates that an absent item was replaced by a
	// present one.
	BecamePresent

	// IdentityChanged indicates that both items are present, differ by
	// value and report different identities through Identifiable.
	IdentityChanged
)

// String returns the name of the change kind.
func (k Kind) String() string {
	switch k {
	case NoChange:
		return "no-change"
	case ValueChanged:
		return "value-changed"
	case BecameAbsent:
		return "became-absent"
	case BecamePresent:
		return "became-present"
	case IdentityChanged:
		return "identity-changed"
	default:
		return "unknown"
	}
}

// IsChange reports whether the kind describes a real change.
func (k Kind) IsChange() bool {
	return k != NoChange
}
