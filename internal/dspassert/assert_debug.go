//go:build dspdebug

package dspassert

// Enabled reports whether assertions panic.
const Enabled = true

// Violation panics with msg.
func Violation(msg string) {
	panic("dsp assertion failed: " + msg)
}
