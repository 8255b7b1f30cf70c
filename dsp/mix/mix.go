// Package mix blends a captured dry signal with a processed wet signal.
//
// A DryWetMixer is used in two steps per block: PushDrySamples stores a copy
// of the unprocessed block, and MixWetSamples later replaces the processed
// block with w*wet + (1-w)*dry. Changes to the wet proportion w ramp
// linearly over a short time to avoid clicks.
package mix

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/parcomp/dsp/buffer"
	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/dsp/ramp"
	"github.com/cwbudde/parcomp/internal/dspassert"
)

// DefaultProportionRampSeconds is the ramp time for wet proportion changes.
const DefaultProportionRampSeconds = 0.05

// DryWetMixer captures dry samples and blends them with wet samples.
//
// Exactly one PushDrySamples must precede each MixWetSamples, and both calls
// must see blocks of the same shape. Violations panic when built with the
// dspdebug tag. Otherwise MixWetSamples leaves the wet block untouched and
// the event is counted in Violations.
type DryWetMixer struct {
	sampleRate  float64
	rampSeconds float64

	dry        *buffer.Block
	proportion ramp.Linear
	wetGains   []float64
	dryGains   []float64
	pending    bool

	violations atomic.Uint64
}

// NewDryWetMixer returns a fully wet mixer.
func NewDryWetMixer() *DryWetMixer {
	m := &DryWetMixer{rampSeconds: DefaultProportionRampSeconds}
	m.proportion.SetCurrentAndTarget(1)
	return m
}

// Prepare allocates dry storage for blocks of up to maxBlockSize samples and
// channels channels, then resets the mixer.
func (m *DryWetMixer) Prepare(channels, maxBlockSize int, sampleRate float64) error {
	if channels <= 0 {
		return fmt.Errorf("mixer channel count must be > 0: %d", channels)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("mixer block size must be > 0: %d", maxBlockSize)
	}
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("mixer sample rate must be positive and finite: %f", sampleRate)
	}

	m.sampleRate = sampleRate
	if m.dry == nil || m.dry.NumChannels() != channels || m.dry.Cap() < maxBlockSize {
		m.dry = buffer.New(channels, maxBlockSize)
	}
	m.wetGains = core.EnsureLen(m.wetGains, maxBlockSize)
	m.dryGains = core.EnsureLen(m.dryGains, maxBlockSize)
	m.Reset()

	return nil
}

// Reset snaps the wet proportion to its target and drops any pending dry
// block.
func (m *DryWetMixer) Reset() {
	m.proportion.Reset(m.sampleRate, m.rampSeconds)
	m.pending = false
	if m.dry != nil {
		m.dry.Zero()
	}
}

// SetRampDurationSeconds sets the proportion ramp time. It takes effect on
// the next Reset or Prepare.
func (m *DryWetMixer) SetRampDurationSeconds(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("mixer ramp must be >= 0 and finite: %f", seconds)
	}
	m.rampSeconds = seconds
	return nil
}

// SetWetMixProportion sets the wet share, clamped to [0, 1].
func (m *DryWetMixer) SetWetMixProportion(proportion float64) {
	if math.IsNaN(proportion) {
		return
	}
	m.proportion.SetTargetValue(core.Clamp(proportion, 0, 1))
}

// WetMixProportion returns the target wet share.
func (m *DryWetMixer) WetMixProportion() float64 {
	return m.proportion.Target()
}

// Violations returns the number of ordering or shape violations seen since
// creation. It is safe to call from any goroutine.
func (m *DryWetMixer) Violations() uint64 {
	return m.violations.Load()
}

// PushDrySamples stores a copy of block as the dry signal for the next
// MixWetSamples call.
func (m *DryWetMixer) PushDrySamples(block [][]float64) {
	if m.dry == nil || len(block) != m.dry.NumChannels() || core.BlockLen(block) > m.dry.Cap() {
		m.violation("dry block does not match prepared layout")
		m.pending = false
		return
	}
	if m.pending {
		// The previous dry block was never mixed; the newer one wins.
		m.violation("dry samples pushed twice without mixing")
	}

	m.dry.CopyFrom(block)
	m.pending = true
}

// MixWetSamples replaces wet with the blend of wet and the pending dry block.
func (m *DryWetMixer) MixWetSamples(wet [][]float64) {
	if !m.pending {
		m.violation("wet samples mixed without pushed dry samples")
		return
	}
	m.pending = false

	if !m.dry.SameShape(wet) {
		m.violation("wet block shape differs from dry block")
		return
	}

	n := m.dry.Len()
	if n == 0 {
		return
	}

	if !m.proportion.IsSmoothing() {
		m.mixConstant(wet, m.proportion.Target())
		return
	}

	wetGains := m.wetGains[:n]
	dryGains := m.dryGains[:n]
	m.proportion.Fill(wetGains)
	for i, w := range wetGains {
		dryGains[i] = 1 - w
	}

	for ch, w := range wet {
		vecmath.MulBlockInPlace(w, wetGains)
		vecmath.MulAddBlock(w, m.dry.Channel(ch), dryGains, w)
	}
}

func (m *DryWetMixer) mixConstant(wet [][]float64, w float64) {
	switch w {
	case 1:
		return
	case 0:
		m.dry.CopyTo(wet)
		return
	}

	for ch, out := range wet {
		dry := m.dry.Channel(ch)
		vecmath.ScaleBlockInPlace(out, w)
		vecmath.ScaleBlockInPlace(dry, 1-w)
		vecmath.AddBlockInPlace(out, dry)
	}
}

func (m *DryWetMixer) violation(msg string) {
	m.violations.Add(1)
	dspassert.Violation("mix: " + msg)
}
