// Package dspassert reports programming errors on the audio path.
//
// Built with the dspdebug tag, Violation panics so misuse surfaces in tests
// and during development. Without the tag Violation is a no-op and callers
// fall back to a safe pass-through while counting the event.
package dspassert
