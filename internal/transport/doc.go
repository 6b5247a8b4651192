// Package transport carries protocol frames over a websocket.
//
// Every frame is a text message. Writes from different goroutines are
// serialised; reads happen on the single goroutine running Listen, which
// keeps inbound frames in arrival order.
package transport
