// Package state shares the latest page of the default window between the
// client goroutines and the UI.
//
// # Overview
//
// Window hooks and the pinger write into a Store; the UI reads a Snapshot
// on its own schedule. Render hooks flatten the tree inside the render job
// and hand the resulting page over, so the UI never touches the live tree.
//
//	Producers:                       Consumer (UI):
//	┌──────────────────┐            ┌─────────────────┐
//	│ OnRendered       │            │                 │
//	│  → SetPage()     │            │                 │
//	│ OnTitle/Address  │───────────→│ store.Snapshot()│
//	│  → SetView()     │  (mutex)   │      ↓          │
//	│ pinger           │            │  render UI      │
//	│  → PingSent()    │            │                 │
//	└──────────────────┘            └─────────────────┘
//
// # Update Semantics
//
// Errors never clear the page: a crashed window keeps showing what it last
// rendered, with the error in the status bar. Crashed is sticky.
//
// A ping increments MissedPongs and a pong resets it; two unanswered pings
// mark the connection offline.
//
// # Copying
//
// Snapshot clones the page lines and targets and wraps the error, so the
// caller may keep or modify what it gets. Targets still point at live
// nodes; they are only ever handed back to the window, which checks that
// the node is still in the tree before acting on it.
//
// The zero Store is ready to use.
package state
