// Package textdoc flattens a display tree into lines of text for a terminal.
//
// Block elements start new lines, inline content is joined and whitespace
// collapses the way a browser would collapse it. Interactive elements become
// targets: each target records the line and byte span it occupies so a
// viewer can highlight the focused one, and the node it stands for so an
// interaction can be dispatched against it.
package textdoc
