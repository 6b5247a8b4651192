// Package app is the composition root of the client.
//
// Run loads the config and preferences, opens the JSON log, dials the
// server and creates the default window. Three goroutines then run under one
// errgroup:
//
//   - the reader, which hands every frame to the client and copies the
//     window's state into the store
//   - the client's ping loop, whose ping and pong callbacks count
//     unanswered pings so the UI can show the connection as offline
//   - the Bubble Tea UI, which reads the store and sends user actions back
//     through the browser
//
// Without a terminal on stdout there is no UI: each rendered page is
// printed as plain text and the run ends when the server closes the
// connection.
//
// The browser type is the glue between the window and the UI. Its hooks
// flatten each rendered tree into the store, and its methods turn UI
// requests into views and interactions. It keeps the address history for
// Back and remembers the last address in the preferences file.
package app
