// Package protocol defines the wire format spoken between loom and a
// server-driven UI server.
//
// Every protocol frame is a text message made of the "lona:" prefix followed
// by a JSON array:
//
//	[windowId, viewRuntimeId, method, payload]
//
// Frames without the prefix, or prefixed frames that do not decode, are not
// protocol errors for a window; Decode reports them with ErrNotProtocol or
// ErrMalformed so the client can hand them to its generic message handlers.
//
// Display payloads come in three kinds: a markup string, one node spec tree,
// or an ordered batch of patches. Node specs and patches are positional
// arrays; DecodeNodeSpec and DecodePatches turn them into NodeSpec and Patch
// values, and Patch exposes typed accessors for its operation arguments so
// the renderer decodes only what an operation needs.
package protocol
