// Package client multiplexes the windows of one connection.
//
// HandleRaw decodes inbound frames and hands each protocol message to the
// window it addresses. Frames without the protocol prefix, malformed frames
// and messages for unknown windows go down a chain of handlers, which lets
// an embedding application share the connection with its own traffic.
package client
