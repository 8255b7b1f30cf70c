//go:build !dspdebug

package dspassert

// Enabled reports whether assertions panic.
const Enabled = false

// Violation is a no-op without the dspdebug build tag.
func Violation(string) {}
