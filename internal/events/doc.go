// Package events captures user interactions with the display tree and turns
// them into input events.
//
// Handlers are derived per element from the data-lona-events attribute, a
// ';' separated list of TYPE[:arg,...] entries. Anchors without a click
// binding navigate to their href and forms without a submit binding navigate
// with their serialised fields; data-lona-ignore switches capture off for a
// node. A change binding with a numeric argument is debounced by that many
// milliseconds, and every keystroke restarts the delay.
//
// Interactions bubble from their target to the nearest ancestor with a
// matching handler. Tracker allocates event ids and reports events that were
// never acknowledged.
package events
