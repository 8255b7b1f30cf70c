// Package scope collects the processed output for display.
//
// A Scope receives every output block from the audio thread through
// PushBuffer and condenses it into min/max points, one point per
// SamplesPerPoint input samples. Display code reads the most recent
// BufferSize points with Waveform and a magnitude spectrum of the latest
// samples with Spectrum. The audio side never blocks or allocates; every
// shared value is an atomic, so readers may observe a block that is only
// partially written, which is harmless for display.
package scope

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/parcomp/dsp/core"
)

const (
	// DefaultBufferSize is the number of displayed points.
	DefaultBufferSize = 256
	// MinBufferSize and MaxBufferSize bound SetBufferSize.
	MinBufferSize = 32
	MaxBufferSize = 1024

	// DefaultSamplesPerPoint is the number of input samples per point.
	DefaultSamplesPerPoint = 256

	// RepaintRate is the suggested display refresh rate in Hz.
	RepaintRate = 39

	maxChannels = core.MaxChannels
)

// Scope is a waveform and spectrum tap. Create it with New.
type Scope struct {
	samplesPerPoint int
	bufferSize      atomic.Int64
	numChannels     atomic.Int64

	mins    [maxChannels][MaxBufferSize]atomic.Uint64
	maxs    [maxChannels][MaxBufferSize]atomic.Uint64
	written atomic.Uint64

	tap        [SpectrumSize]atomic.Uint64
	tapWritten atomic.Uint64

	// Accumulators owned by the audio thread.
	accMin   [maxChannels]float64
	accMax   [maxChannels]float64
	accCount int

	spectrum *analyzer
	readMu   sync.Mutex
}

// Option configures a Scope.
type Option func(*Scope)

// WithSamplesPerPoint sets how many input samples are condensed into one
// display point.
func WithSamplesPerPoint(n int) Option {
	return func(s *Scope) {
		if n > 0 {
			s.samplesPerPoint = n
		}
	}
}

// New returns a mono scope showing DefaultBufferSize points.
func New(opts ...Option) (*Scope, error) {
	s := &Scope{samplesPerPoint: DefaultSamplesPerPoint}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	a, err := newAnalyzer(SpectrumSize)
	if err != nil {
		return nil, err
	}
	s.spectrum = a

	s.bufferSize.Store(DefaultBufferSize)
	s.numChannels.Store(1)
	s.Clear()
	return s, nil
}

// SetBufferSize sets the number of displayed points, clamped to
// [MinBufferSize, MaxBufferSize].
func (s *Scope) SetBufferSize(n int) {
	s.bufferSize.Store(int64(core.Clamp(float64(n), MinBufferSize, MaxBufferSize)))
}

// BufferSize returns the number of displayed points.
func (s *Scope) BufferSize() int {
	return int(s.bufferSize.Load())
}

// SetNumChannels selects mono (channel 0 only) or stereo display.
func (s *Scope) SetNumChannels(n int) {
	s.numChannels.Store(int64(core.Clamp(float64(n), 1, maxChannels)))
}

// NumChannels returns the number of displayed channels.
func (s *Scope) NumChannels() int {
	return int(s.numChannels.Load())
}

// SamplesPerPoint returns the number of input samples per display point.
func (s *Scope) SamplesPerPoint() int {
	return s.samplesPerPoint
}

// Clear drops all collected data. It must not run concurrently with
// PushBuffer; the processor calls it from Prepare and ReleaseResources.
func (s *Scope) Clear() {
	for ch := range maxChannels {
		for i := range MaxBufferSize {
			s.mins[ch][i].Store(0)
			s.maxs[ch][i].Store(0)
		}
	}
	for i := range s.tap {
		s.tap[i].Store(0)
	}
	s.written.Store(0)
	s.tapWritten.Store(0)
	s.resetAccumulators()
}

// PushBuffer records a processed block. It is called on the audio thread.
func (s *Scope) PushBuffer(block [][]float64) {
	n := core.BlockLen(block)
	channels := min(len(block), s.NumChannels())

	tapPos := s.tapWritten.Load()
	for i := range n {
		for ch := range channels {
			v := block[ch][i]
			if v < s.accMin[ch] {
				s.accMin[ch] = v
			}
			if v > s.accMax[ch] {
				s.accMax[ch] = v
			}
		}

		s.tap[tapPos%SpectrumSize].Store(math.Float64bits(mono(block, i)))
		tapPos++

		s.accCount++
		if s.accCount >= s.samplesPerPoint {
			s.emitPoint()
		}
	}
	s.tapWritten.Store(tapPos)
}

func (s *Scope) emitPoint() {
	w := s.written.Load()
	idx := w % MaxBufferSize
	for ch := range maxChannels {
		lo, hi := s.accMin[ch], s.accMax[ch]
		if lo > hi {
			// Channel not displayed during this point.
			lo, hi = 0, 0
		}
		s.mins[ch][idx].Store(math.Float64bits(lo))
		s.maxs[ch][idx].Store(math.Float64bits(hi))
	}
	s.written.Store(w + 1)
	s.resetAccumulators()
}

func (s *Scope) resetAccumulators() {
	s.accCount = 0
	for ch := range maxChannels {
		s.accMin[ch] = math.Inf(1)
		s.accMax[ch] = math.Inf(-1)
	}
}

func mono(block [][]float64, i int) float64 {
	if len(block) == 1 {
		return block[0][i]
	}
	return 0.5 * (block[0][i] + block[1][i])
}

// Waveform holds display points in chronological order, one slice per
// displayed channel.
type Waveform struct {
	Min [][]float64 `json:"min"`
	Max [][]float64 `json:"max"`
}

// Waveform returns up to BufferSize of the most recent points.
func (s *Scope) Waveform() Waveform {
	channels := s.NumChannels()
	want := uint64(s.BufferSize())
	w := s.written.Load()
	n := min(want, w)

	out := Waveform{
		Min: make([][]float64, channels),
		Max: make([][]float64, channels),
	}
	for ch := range channels {
		out.Min[ch] = make([]float64, n)
		out.Max[ch] = make([]float64, n)
		for k := range n {
			idx := (w - n + k) % MaxBufferSize
			out.Min[ch][k] = math.Float64frombits(s.mins[ch][idx].Load())
			out.Max[ch][k] = math.Float64frombits(s.maxs[ch][idx].Load())
		}
	}
	return out
}

// Points returns the total number of points emitted since the last Clear.
func (s *Scope) Points() uint64 {
	return s.written.Load()
}
