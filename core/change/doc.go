// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package change classifies what kind of change occurred when the item
// held by a cell is replaced. It holds no state: the Item slot, the
// equality strategies and the runtime type tags are plain values shared
// by the cell and sequence packages.
package change
