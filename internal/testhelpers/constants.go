// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package testhelpers holds timing constants and watcher assertions
// shared by the test suites of this module.
package testhelpers

import (
	"time"
)

// ShortWait is how long to block waiting for something that shouldn't
// happen. Tests really do wait this long.
const ShortWait = 50 * time.Millisecond

// LongWait is how long to block waiting for something that should
// already have happened. Tests normally proceed without sleeping at all.
const LongWait = 10 * time.Second
