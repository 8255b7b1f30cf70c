//go:build fastmath

package dynamics

// curveTolerance bounds the error of static-curve results computed with the
// algo-approx log and exp, in dB or log2 units.
const curveTolerance = 1e-3
