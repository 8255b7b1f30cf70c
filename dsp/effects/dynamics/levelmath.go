//go:build !fastmath

package dynamics

import "math"

// levelLog2 maps a detector magnitude into the log2 domain.
func levelLog2(level float64) float64 {
	return math.Log2(level)
}

// attenuation turns a log2-domain reduction into a linear gain factor.
func attenuation(reductionLog2 float64) float64 {
	return math.Exp2(-reductionLog2)
}
