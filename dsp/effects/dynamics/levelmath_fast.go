//go:build fastmath

package dynamics

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// levelLog2 maps a detector magnitude into the log2 domain with the
// algo-approx logarithm.
func levelLog2(level float64) float64 {
	return approx.FastLog(level) / math.Ln2
}

// attenuation turns a log2-domain reduction into a linear gain factor with
// the algo-approx exponential.
func attenuation(reductionLog2 float64) float64 {
	return approx.FastExp(-reductionLog2 * math.Ln2)
}
