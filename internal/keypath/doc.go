// Package keypath edits decoded JSON values (maps, lists and scalars) at a
// key path. Every operation returns the possibly replaced root; callers keep
// the returned value.
package keypath
