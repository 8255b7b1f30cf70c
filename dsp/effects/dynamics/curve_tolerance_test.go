//go:build !fastmath

package dynamics

// curveTolerance bounds the error of static-curve results computed with the
// math package.
const curveTolerance = 1e-6
