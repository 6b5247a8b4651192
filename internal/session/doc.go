// Package session runs the protocol state machine of one window.
//
// A Window moves from idle to view requested when RunView sends a view
// request, to view running when the server announces the runtime id of the
// view, and to view stopped when that runtime ends. Data for any other
// runtime is dropped. Every change to the display tree runs as a job on the
// window's queue, in arrival order, so a render never interleaves with
// another render or with an interaction.
//
// The first failing job crashes the window: the error is sent to the server
// once, pending input events are forgotten and every later message is
// ignored.
package session
