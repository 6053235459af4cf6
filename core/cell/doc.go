// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cell provides reactive single-item cells.
//
// A Cell holds one typed item, which may be absent if the cell is
// nullable. Setting a new item classifies the change and, unless nothing
// changed, notifies the listeners registered on the originating channel
// and on the broadcast channel, synchronously and in registration order.
//
// A View is a read-only cell derived from one or two sources by a
// combining function. It is recomputed every time a source notifies.
// A Lens is a writable child cell zoomed onto part of a parent cell.
//
// Cells are not safe for concurrent use. Use the watcher package to
// observe a cell from another goroutine.
package cell
