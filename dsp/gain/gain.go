// Package gain implements a ramped gain stage.
//
// The gain is specified in decibels, converted to linear amplitude, and
// approached linearly in the linear domain over a configurable ramp time.
package gain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/dsp/ramp"
)

const (
	// DefaultRampSeconds is the gain ramp time used by the effect pipeline.
	DefaultRampSeconds = 0.25

	// MaxRampSeconds bounds the configurable ramp time.
	MaxRampSeconds = 10.0
)

// Stage applies a smoothed gain to every channel of a block in place.
type Stage struct {
	sampleRate  float64
	rampSeconds float64
	gain        ramp.Linear
	scratch     []float64
}

// NewStage returns a unity-gain stage with DefaultRampSeconds.
func NewStage() *Stage {
	s := &Stage{rampSeconds: DefaultRampSeconds}
	s.gain.SetCurrentAndTarget(1)
	return s
}

// Prepare sizes the gain-curve scratch for blocks of up to maxBlockSize
// samples and resets the ramp for sampleRate.
func (s *Stage) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("gain stage sample rate must be positive and finite: %f", sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("gain stage block size must be > 0: %d", maxBlockSize)
	}

	s.sampleRate = sampleRate
	s.scratch = core.EnsureLen(s.scratch, maxBlockSize)
	s.Reset()

	return nil
}

// Reset snaps the gain to its target.
func (s *Stage) Reset() {
	s.gain.Reset(s.sampleRate, s.rampSeconds)
}

// SetRampDurationSeconds sets the ramp time. It takes effect on the next
// Reset or Prepare.
func (s *Stage) SetRampDurationSeconds(seconds float64) error {
	if seconds < 0 || seconds > MaxRampSeconds || math.IsNaN(seconds) {
		return fmt.Errorf("gain stage ramp must be in [0, %f]: %f", MaxRampSeconds, seconds)
	}
	s.rampSeconds = seconds
	return nil
}

// SetGainDecibels sets the target gain in dB. Values at or below
// core.MinusInfinityDB mute.
func (s *Stage) SetGainDecibels(db float64) {
	s.gain.SetTargetValue(core.DecibelsToGain(db))
}

// SetGainLinear sets the target gain as a linear amplitude factor.
func (s *Stage) SetGainLinear(gain float64) {
	s.gain.SetTargetValue(gain)
}

// GainDecibels returns the target gain in dB.
func (s *Stage) GainDecibels() float64 {
	return core.GainToDecibels(s.gain.Target())
}

// GainLinear returns the target gain as a linear factor.
func (s *Stage) GainLinear() float64 {
	return s.gain.Target()
}

// CurrentGainLinear returns the gain applied to the most recent sample.
func (s *Stage) CurrentGainLinear() float64 {
	return s.gain.Current()
}

// IsSmoothing reports whether a gain ramp is in progress.
func (s *Stage) IsSmoothing() bool {
	return s.gain.IsSmoothing()
}

// RampDurationSeconds returns the configured ramp time.
func (s *Stage) RampDurationSeconds() float64 {
	return s.rampSeconds
}

// ProcessBlock applies the gain to block in place. All channels share the
// same gain curve.
func (s *Stage) ProcessBlock(block [][]float64) {
	n := core.BlockLen(block)
	if n == 0 {
		return
	}

	for offset := 0; offset < n; {
		if !s.gain.IsSmoothing() {
			s.applyConstant(block, offset, n)
			return
		}

		chunk := min(n-offset, len(s.scratch))
		if chunk == 0 {
			// Not prepared: no curve storage, adopt the target.
			s.gain.SetCurrentAndTarget(s.gain.Target())
			continue
		}

		curve := s.scratch[:chunk]
		s.gain.Fill(curve)
		for _, ch := range block {
			vecmath.MulBlockInPlace(ch[offset:offset+chunk], curve)
		}
		offset += chunk
	}
}

func (s *Stage) applyConstant(block [][]float64, from, to int) {
	g := s.gain.Target()
	if g == 1 {
		return
	}
	for _, ch := range block {
		vecmath.ScaleBlockInPlace(ch[from:to], g)
	}
}
