// Package widget manages client-side components bound to parts of the display
// tree.
//
// A component moves through Unbound, Initialized and Destroyed. Binding
// happens while a subtree is rendered; the Setup hook runs when the payload
// that rendered it has been fully applied, DataUpdated runs after payloads
// that patched its data, and Destroy runs once when the tree no longer
// contains it. Every hook that reads data receives a fresh deep copy.
//
// Implementations are looked up by class name in an injected Registry and
// opt into hooks by implementing Setupper, DataUpdater, Destroyer or
// NodesUpdater.
package widget
