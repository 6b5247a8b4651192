// Package ui provides the terminal front end of the client.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never touches a window's display tree
// directly: the application flattens each rendered tree into a
// textdoc.Page and publishes it through a state.Store, and the model polls
// the store on a short tick. User requests flow the other way through the
// Actions interface and always run as commands, because a window serializes
// them behind its own render jobs.
//
// # Package Structure
//
//   - app.go: Model, key dispatch, messages and the Run entry point
//   - page.go: page rendering, target focus and activation
//   - header.go: title bar, command bar and status line
//   - logs.go: the client log view
//   - layout.go: framed boxes and background-safe segment rendering
//   - theme.go: color themes
//   - keys.go, help.go: key bindings and the help overlay
//
// # Views
//
//   - Page: the current view of the default window. Tab moves between
//     targets (links, buttons, inputs and selects); enter activates or
//     edits the focused one.
//   - Logs: the tail of the client's own JSON log.
//
// # Themes
//
// Nightfox, Kanagawa and Carbonfox are available. T cycles them and the choice
// is saved to the preferences file.
package ui
