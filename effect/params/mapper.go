package params

import "github.com/cwbudde/parcomp/dsp/core"

// AttackMs maps the raw attack control to milliseconds (3 to 33 ms over the
// 0 to 10 range). The input is not range checked.
func AttackMs(raw float64) float64 {
	return 3 + 3*raw
}

// ReleaseMs maps the raw release control to milliseconds (50 to 300 ms over
// the 0 to 10 range). The input is not range checked.
func ReleaseMs(raw float64) float64 {
	return 50 + 25*raw
}

// ThresholdLinear converts the threshold in dB to linear amplitude.
func ThresholdLinear(db float64) float64 {
	return core.DBToLinear(db)
}

// WetProportion converts the mixer percentage to a [0, 1] wet share.
func WetProportion(mixer float64) float64 {
	return mixer / 100
}
