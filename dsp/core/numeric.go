package core

import "math"

// MinusInfinityDB is the floor for levels reported in dB. Meters show it
// instead of -Inf so they stay finite.
const MinusInfinityDB = -100.0

// denormalFloor is the magnitude below which recursive state is snapped to 0.
const denormalFloor = 1e-30

// Clamp limits value to the inclusive range spanned by lo and hi, in either
// order.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(value, lo), hi)
}

// FlushDenormals returns 0 for values too small to matter, keeping decaying
// envelopes out of the subnormal range.
func FlushDenormals(x float64) float64 {
	if math.Abs(x) < denormalFloor {
		return 0
	}
	return x
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DBToLinear converts a level in dB to a linear amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// DecibelsToGain is DBToLinear with everything at or below MinusInfinityDB
// mapped to silence.
func DecibelsToGain(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}
	return DBToLinear(db)
}

// GainToDecibels converts a linear amplitude to dB, floored at
// MinusInfinityDB.
func GainToDecibels(gain float64) float64 {
	if gain <= 0 {
		return MinusInfinityDB
	}
	return max(MinusInfinityDB, 20*math.Log10(gain))
}
