// Package ramp provides a linearly smoothed value for click-free parameter
// changes on the audio path.
//
// A Linear ramp covers the distance between its current value and a new
// target in a fixed number of samples. Setting a new target while a ramp is
// running restarts the ramp from wherever the value currently is, so the
// per-sample slope never exceeds |target-current|/steps.
package ramp

import "math"

// Linear is a linearly interpolating smoothed value. The zero value holds 0
// and has no ramp time, so every target is adopted immediately.
type Linear struct {
	current   float64
	target    float64
	step      float64
	steps     int
	countdown int
}

// NewLinear returns a ramp settled at initial.
func NewLinear(initial float64) *Linear {
	return &Linear{current: initial, target: initial}
}

// Reset sets the ramp length from sampleRate and rampSeconds and snaps the
// current value to the target.
func (r *Linear) Reset(sampleRate, rampSeconds float64) {
	steps := 0
	if sampleRate > 0 && rampSeconds > 0 {
		steps = int(math.Floor(rampSeconds * sampleRate))
	}
	r.ResetSteps(steps)
}

// ResetSteps sets the ramp length in samples and snaps to the target.
func (r *Linear) ResetSteps(steps int) {
	if steps < 0 {
		steps = 0
	}
	r.steps = steps
	r.SetCurrentAndTarget(r.target)
}

// SetCurrentAndTarget jumps to value without ramping.
func (r *Linear) SetCurrentAndTarget(value float64) {
	r.current = value
	r.target = value
	r.step = 0
	r.countdown = 0
}

// SetTargetValue starts a ramp from the current value to target. A target
// equal to the pending one is ignored.
func (r *Linear) SetTargetValue(target float64) {
	if target == r.target {
		return
	}

	if r.steps <= 0 {
		r.SetCurrentAndTarget(target)
		return
	}

	r.target = target
	r.countdown = r.steps
	r.step = (r.target - r.current) / float64(r.countdown)
}

// Next advances the ramp by one sample and returns the new value.
func (r *Linear) Next() float64 {
	if r.countdown <= 0 {
		return r.target
	}

	r.countdown--
	if r.countdown > 0 {
		r.current += r.step
	} else {
		r.current = r.target
	}

	return r.current
}

// Skip advances the ramp by n samples and returns the resulting value.
func (r *Linear) Skip(n int) float64 {
	if n >= r.countdown {
		r.SetCurrentAndTarget(r.target)
		return r.target
	}
	if n > 0 {
		r.current += r.step * float64(n)
		r.countdown -= n
	}
	return r.current
}

// Fill writes the next len(dst) ramp values into dst.
func (r *Linear) Fill(dst []float64) {
	if r.countdown <= 0 {
		for i := range dst {
			dst[i] = r.target
		}
		return
	}

	for i := range dst {
		dst[i] = r.Next()
	}
}

// Current returns the most recently produced value.
func (r *Linear) Current() float64 { return r.current }

// Target returns the value the ramp is heading to.
func (r *Linear) Target() float64 { return r.target }

// Steps returns the ramp length in samples.
func (r *Linear) Steps() int { return r.steps }

// IsSmoothing reports whether the ramp has not yet reached its target.
func (r *Linear) IsSmoothing() bool { return r.countdown > 0 }
