// Package logtail reads the tail of the client's JSON log for display.
//
// # Reading
//
// Read returns the last N lines of a file in one sequential pass using a
// ring buffer of N entries, so memory stays bounded however large the log
// grows. A missing file is treated as empty.
//
// # Parsing
//
// The client logs with slog's JSON handler. Parse turns one record back
// into an Entry, keeping the time, level and message apart from the
// remaining attributes, which stay in file order. Lines that are not JSON
// objects are kept verbatim in Entry.Raw. Format renders an entry on a
// single line:
//
//	09:30:00 WARN  input event not acknowledged window=1 event_id=7
package logtail
