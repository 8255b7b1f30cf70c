package processor

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/dsp/effects/dynamics"
	"github.com/cwbudde/parcomp/dsp/gain"
	"github.com/cwbudde/parcomp/dsp/mix"
	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/internal/dspassert"
)

var (
	// ErrNilStore is returned by New without a parameter store.
	ErrNilStore = errors.New("processor requires a parameter store")

	// ErrUnsupportedLayout is returned by Prepare for channel layouts
	// rejected by SupportsLayout.
	ErrUnsupportedLayout = errors.New("unsupported channel layout")
)

// Processor is the parallel compression effect.
//
// Prepare and ReleaseResources belong to the control thread and must not
// overlap with ProcessBlock. Parameters change through the Store at any
// time; Meters and Faults may be read from any goroutine.
type Processor struct {
	store *params.Store
	cfg   config

	inGain  *gain.Stage
	outGain *gain.Stage
	comp    *dynamics.Compressor
	mixer   *mix.DryWetMixer

	stream      core.ProcessorConfig
	inChannels  int
	outChannels int
	prepared    bool
	view        [][]float64

	applied     params.Snapshot
	haveApplied bool

	meters meterState

	notPrepared      atomic.Uint64
	layoutMismatches atomic.Uint64
	parameterRejects atomic.Uint64
	visualizerPanics atomic.Uint64
}

// New creates an unprepared processor reading parameters from store.
func New(store *params.Store, opts ...Option) (*Processor, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	comp, err := dynamics.NewCompressor(core.DefaultProcessorConfig().SampleRate)
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}

	p := &Processor{
		store:   store,
		cfg:     cfg,
		inGain:  gain.NewStage(),
		outGain: gain.NewStage(),
		comp:    comp,
		mixer:   mix.NewDryWetMixer(),
	}

	for _, s := range []*gain.Stage{p.inGain, p.outGain} {
		if err := s.SetRampDurationSeconds(cfg.gainRampSeconds); err != nil {
			return nil, fmt.Errorf("processor: %w", err)
		}
	}
	if err := p.mixer.SetRampDurationSeconds(cfg.mixRampSeconds); err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}

	return p, nil
}

// SupportsLayout reports whether the effect can run with the given input
// and output channel counts: mono or stereo output, with matching input or
// no input at all.
func SupportsLayout(in, out int) bool {
	if out < 1 || out > core.MaxChannels {
		return false
	}
	return in == out || in == 0
}

// SupportsLayout is the method form of the package function.
func (p *Processor) SupportsLayout(in, out int) bool {
	return SupportsLayout(in, out)
}

// Prepare configures every stage for the stream format and resets all
// processing state. The current parameter values are applied without
// ramping. Call it again whenever the format changes.
func (p *Processor) Prepare(sampleRate float64, maxBlockSize, inChannels, outChannels int) error {
	if !SupportsLayout(inChannels, outChannels) {
		return fmt.Errorf("prepare %d in / %d out: %w", inChannels, outChannels, ErrUnsupportedLayout)
	}

	stream := core.ProcessorConfig{
		SampleRate: sampleRate,
		BlockSize:  maxBlockSize,
		Channels:   outChannels,
	}
	if err := stream.Validate(); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	p.prepared = false

	if err := p.inGain.Prepare(sampleRate, maxBlockSize); err != nil {
		return fmt.Errorf("prepare input gain: %w", err)
	}
	if err := p.outGain.Prepare(sampleRate, maxBlockSize); err != nil {
		return fmt.Errorf("prepare output gain: %w", err)
	}
	if err := p.comp.Prepare(sampleRate, maxBlockSize, outChannels); err != nil {
		return fmt.Errorf("prepare compressor: %w", err)
	}
	if err := p.mixer.Prepare(outChannels, maxBlockSize, sampleRate); err != nil {
		return fmt.Errorf("prepare mixer: %w", err)
	}

	p.stream = stream
	p.inChannels = inChannels
	p.outChannels = outChannels
	if cap(p.view) < outChannels {
		p.view = make([][]float64, outChannels)
	}
	p.view = p.view[:outChannels]

	p.haveApplied = false
	p.adoptParameters()
	p.resetStages()
	p.meters.reset()
	p.clearVisualizer()

	p.prepared = true

	logrus.WithFields(logrus.Fields{
		"function":     "Prepare",
		"sample_rate":  sampleRate,
		"block_size":   maxBlockSize,
		"in_channels":  inChannels,
		"out_channels": outChannels,
	}).Info("Processor prepared")

	return nil
}

// ReleaseResources is called by the host when playback stops. It clears
// the visualizer; the processor stays prepared.
func (p *Processor) ReleaseResources() {
	p.clearVisualizer()

	logrus.WithFields(logrus.Fields{
		"function": "ReleaseResources",
	}).Debug("Processor resources released")
}

// Reset clears all envelopes and snaps every ramp to its target.
func (p *Processor) Reset() {
	p.resetStages()
	p.meters.reset()
}

// TailSeconds returns the length of the effect tail. Peak compression has
// no look-ahead or reverb tail.
func (p *Processor) TailSeconds() float64 { return 0 }

// Stream returns the prepared stream format.
func (p *Processor) Stream() core.ProcessorConfig { return p.stream }

// Prepared reports whether Prepare succeeded.
func (p *Processor) Prepared() bool { return p.prepared }

// Visualizer returns the installed visualizer or nil.
func (p *Processor) Visualizer() Visualizer { return p.cfg.visualizer }

// Meters returns the levels of the most recent block.
func (p *Processor) Meters() Meters {
	return p.meters.load()
}

// Faults returns the audio-path fault counters.
func (p *Processor) Faults() Faults {
	return Faults{
		NotPrepared:      p.notPrepared.Load(),
		LayoutMismatches: p.layoutMismatches.Load(),
		ParameterRejects: p.parameterRejects.Load(),
		MixerViolations:  p.mixer.Violations(),
		VisualizerPanics: p.visualizerPanics.Load(),
	}
}

// ProcessBlock runs the effect in place. block holds one slice per output
// channel; the first inChannels slices carry the input. Blocks longer than
// the prepared maximum are processed in chunks.
func (p *Processor) ProcessBlock(block [][]float64) {
	if !p.prepared {
		p.notPrepared.Add(1)
		dspassert.Violation("processor: ProcessBlock before Prepare")
		return
	}
	if len(block) != p.outChannels {
		p.layoutMismatches.Add(1)
		dspassert.Violation("processor: block channel count differs from prepared layout")
		return
	}

	n := core.BlockLen(block)
	for _, ch := range block[1:] {
		if len(ch) != n {
			p.layoutMismatches.Add(1)
			dspassert.Violation("processor: channels differ in length")
			return
		}
	}

	p.adoptParameters()

	for ch := p.inChannels; ch < p.outChannels; ch++ {
		clear(block[ch])
	}

	inPeak := blockPeak(block)
	reduction := 0.0

	for offset := 0; offset < n; offset += p.stream.BlockSize {
		end := min(offset+p.stream.BlockSize, n)
		for ch := range p.view {
			p.view[ch] = block[ch][offset:end]
		}
		p.processChunk(p.view)
		reduction = max(reduction, p.comp.GainReductionDB())
	}

	p.meters.publish(inPeak, blockPeak(block), reduction)
	p.pushToVisualizer(block)
}

func (p *Processor) processChunk(chunk [][]float64) {
	p.mixer.PushDrySamples(chunk)
	p.inGain.ProcessBlock(chunk)
	p.comp.ProcessBlock(chunk)
	p.outGain.ProcessBlock(chunk)
	p.mixer.MixWetSamples(chunk)
}

// adoptParameters pushes changed snapshot values into the stages.
func (p *Processor) adoptParameters() {
	snap := p.store.Snapshot()
	if p.haveApplied && snap.Version == p.applied.Version {
		return
	}

	first := !p.haveApplied
	changed := func(id params.ID) bool {
		return first || snap.Raw[id] != p.applied.Raw[id]
	}

	if changed(params.InputGain) {
		p.inGain.SetGainDecibels(snap.InputGainDB())
	}
	if changed(params.Threshold) {
		p.reject(p.comp.SetThreshold(snap.ThresholdDB()))
	}
	if changed(params.Ratio) {
		p.reject(p.comp.SetRatio(snap.Ratio()))
	}
	if changed(params.Attack) {
		p.reject(p.comp.SetAttack(snap.AttackMs()))
	}
	if changed(params.Release) {
		p.reject(p.comp.SetRelease(snap.ReleaseMs()))
	}
	if changed(params.OutputGain) {
		p.outGain.SetGainDecibels(snap.OutputGainDB())
	}
	if changed(params.Mixer) {
		p.mixer.SetWetMixProportion(snap.WetProportion())
	}

	p.applied = snap
	p.haveApplied = true
}

func (p *Processor) reject(err error) {
	if err != nil {
		p.parameterRejects.Add(1)
	}
}

func (p *Processor) resetStages() {
	p.inGain.Reset()
	p.outGain.Reset()
	p.comp.Reset()
	p.mixer.Reset()
}

func (p *Processor) pushToVisualizer(block [][]float64) {
	v := p.cfg.visualizer
	if v == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.visualizerPanics.Add(1)
		}
	}()
	v.PushBuffer(block)
}

func (p *Processor) clearVisualizer() {
	if c, ok := p.cfg.visualizer.(clearer); ok {
		c.Clear()
	}
}
