// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the change propagation engine: observable cells, the
views derived from them, observable sequences and plain events.

The packages layer strictly, each importing only those above it:

  - change: items, equality and change classification. No state.
  - channel and owner: notification channels and the owner arena that
    backs weak listeners.
  - registry: ordered listener registration and synchronous dispatch.
  - cell, then sequence and event: the observable containers.
  - watcher: workers bridging containers to other goroutines.

Some rules when adding to core:

  - never import from github.com/juju/cells/internal or cmd.
  - a cell, sequence or event is owned by one goroutine; only watchers,
    owner arenas and recorders may be touched from elsewhere.
  - don't introduce mutable global state beyond owner.Default and the
    package loggers.
*/
package core
