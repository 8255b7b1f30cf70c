package dynamics

import "math"

// log2PerDB converts decibels to log2 units: log2(10) / 20.
const log2PerDB = 0.16609640474436813

// curve is the static gain computer. Levels and reductions are in log2
// units; a reduction of 1 halves the amplitude.
type curve struct {
	thresholdLog2 float64
	kneeLog2      float64 // full knee width, 0 for a hard knee
	slope         float64 // 1 - 1/ratio
}

func newCurve(thresholdDB, ratio, kneeDB float64) curve {
	return curve{
		thresholdLog2: thresholdDB * log2PerDB,
		kneeLog2:      kneeDB * log2PerDB,
		slope:         1 - 1/ratio,
	}
}

// reduction maps a detected magnitude to the wanted gain reduction.
func (k curve) reduction(level float64) float64 {
	if level <= 0 || k.slope == 0 {
		return 0
	}

	over := levelLog2(level) - k.thresholdLog2
	if k.kneeLog2 <= 0 {
		return max(over, 0) * k.slope
	}

	half := 0.5 * k.kneeLog2
	switch {
	case over <= -half:
		return 0
	case over >= half:
		return over * k.slope
	default:
		// Quadratic blend: (over + w/2)^2 / (2w).
		x := over + half
		return x * x / (2 * k.kneeLog2) * k.slope
	}
}

// halfLife returns the per-sample factor that halves a distance after ms
// milliseconds at sampleRate.
func halfLife(ms, sampleRate float64) float64 {
	return math.Exp(-math.Ln2 / (ms * 0.001 * sampleRate))
}
