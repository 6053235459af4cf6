// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package channel defines the dispatch keys used to scope change
// notifications.
package channel

// Channel identifies the origin or audience of a change notification.
// Any string is a valid channel; the constants below are the ones the
// library itself uses.
type Channel string

const (
	// View is used for changes originating from a presentation layer.
	View Channel = "view"

	// ViewModel is used for changes originating from application logic.
	ViewModel Channel = "view-model"

	// All is the broadcast channel. Listeners registered on All receive
	// every notification, and a notification sent on All reaches the
	// listeners of every channel.
	All Channel = "all"
)

// IsBroadcast reports whether c is the broadcast channel.
func (c Channel) IsBroadcast() bool {
	return c == All
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	return string(c)
}
