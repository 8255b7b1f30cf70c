package processor

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/parcomp/dsp/core"
)

// Meters are the levels of the most recent block.
type Meters struct {
	InputPeakDB     float64 `json:"inputPeakDB"`
	OutputPeakDB    float64 `json:"outputPeakDB"`
	GainReductionDB float64 `json:"gainReductionDB"`
	Blocks          uint64  `json:"blocks"`
}

// Faults counts problems absorbed on the audio path.
type Faults struct {
	// NotPrepared counts ProcessBlock calls before Prepare.
	NotPrepared uint64 `json:"notPrepared"`
	// LayoutMismatches counts blocks whose channel count differs from the
	// prepared output layout.
	LayoutMismatches uint64 `json:"layoutMismatches"`
	// ParameterRejects counts snapshot values a stage refused.
	ParameterRejects uint64 `json:"parameterRejects"`
	// MixerViolations counts dry/wet ordering or shape violations.
	MixerViolations uint64 `json:"mixerViolations"`
	// VisualizerPanics counts recovered panics from the visualizer.
	VisualizerPanics uint64 `json:"visualizerPanics"`
}

// Total returns the sum of all counters.
func (f Faults) Total() uint64 {
	return f.NotPrepared + f.LayoutMismatches + f.ParameterRejects + f.MixerViolations + f.VisualizerPanics
}

type meterState struct {
	inputPeak     atomic.Uint64
	outputPeak    atomic.Uint64
	gainReduction atomic.Uint64
	blocks        atomic.Uint64
}

func (m *meterState) publish(inPeak, outPeak, reductionDB float64) {
	m.inputPeak.Store(math.Float64bits(inPeak))
	m.outputPeak.Store(math.Float64bits(outPeak))
	m.gainReduction.Store(math.Float64bits(reductionDB))
	m.blocks.Add(1)
}

func (m *meterState) reset() {
	m.inputPeak.Store(0)
	m.outputPeak.Store(0)
	m.gainReduction.Store(0)
}

func (m *meterState) load() Meters {
	return Meters{
		InputPeakDB:     core.GainToDecibels(math.Float64frombits(m.inputPeak.Load())),
		OutputPeakDB:    core.GainToDecibels(math.Float64frombits(m.outputPeak.Load())),
		GainReductionDB: math.Float64frombits(m.gainReduction.Load()),
		Blocks:          m.blocks.Load(),
	}
}

func blockPeak(block [][]float64) float64 {
	peak := 0.0
	for _, ch := range block {
		if len(ch) == 0 {
			continue
		}
		peak = math.Max(peak, vecmath.MaxAbs(ch))
	}
	return peak
}
