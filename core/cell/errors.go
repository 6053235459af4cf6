// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell

import (
	"github.com/juju/errors"
)

const (
	// ErrNullItem is returned when an absent item is given to a cell
	// which does not allow it.
	ErrNullItem = errors.ConstError("absent item not allowed")

	// ErrTypeMismatch is returned when an item is not assignable to the
	// declared type of a cell.
	ErrTypeMismatch = errors.ConstError("item type mismatch")
)
