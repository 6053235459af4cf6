// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package change

// Identifiable is implemented by payloads which carry an identity that
// is distinct from their value, such as a database key.
type Identifiable interface {
	Identity() any
}

// Classify returns the kind of change between old and new. It is the
// single decision point for whether a real change occurred.
//
// Two absent items are equal. When both items are present and differ by
// value, IdentityChanged is reported if the payloads are Identifiable and
// their identities differ; otherwise ValueChanged is reported.
func Classify[T any](old, new Item[T], equal Equality[T]) Kind {
	switch {
	case !old.present && !new.present:
		return NoChange
	case !old.present:
		return BecamePresent
	case !new.present:
		return BecameAbsent
	}
	if equal == nil {
		equal = EqualityFor[T]()
	}
	if equal(old.value, new.value) {
		return NoChange
	}
	oldID, ok := any(old.value).(Identifiable)
	if !ok {
		return ValueChanged
	}
	newID, ok := any(new.value).(Identifiable)
	if !ok {
		return ValueChanged
	}
	if ValuesEqual(oldID.Identity(), newID.Identity()) {
		return ValueChanged
	}
	return IdentityChanged
}
