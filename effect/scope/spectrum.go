package scope

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/parcomp/dsp/core"
)

// SpectrumSize is the FFT length used by Spectrum.
const SpectrumSize = 1024

type analyzer struct {
	plan   *algofft.Plan[complex128]
	window []float64
	frame  []complex128
	re     []float64
	im     []float64
	mag    []float64
}

func newAnalyzer(size int) (*analyzer, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("scope spectrum plan: %w", err)
	}

	bins := size/2 + 1
	a := &analyzer{
		plan:   plan,
		window: make([]float64, size),
		frame:  make([]complex128, size),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
		mag:    make([]float64, bins),
	}

	// Periodic Hann.
	for i := range a.window {
		a.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}
	return a, nil
}

// Spectrum returns the magnitude spectrum in dBFS of the latest
// SpectrumSize output samples (mono sum), SpectrumSize/2+1 bins from DC to
// Nyquist. Levels are floored at core.MinusInfinityDB.
func (s *Scope) Spectrum() ([]float64, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	a := s.spectrum
	end := s.tapWritten.Load()
	for i := range SpectrumSize {
		pos := end + uint64(i) // oldest sample first
		v := math.Float64frombits(s.tap[pos%SpectrumSize].Load())
		a.frame[i] = complex(v*a.window[i], 0)
	}

	if err := a.plan.Forward(a.frame, a.frame); err != nil {
		return nil, fmt.Errorf("scope spectrum: %w", err)
	}

	for i := range a.re {
		a.re[i] = real(a.frame[i])
		a.im[i] = imag(a.frame[i])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	// Hann coherent gain is 0.5, so a full-scale sine reads 0 dBFS.
	scale := 4.0 / SpectrumSize
	out := make([]float64, len(a.mag))
	for i, m := range a.mag {
		out[i] = core.GainToDecibels(m * scale)
	}
	return out, nil
}

// BinFrequency returns the centre frequency of bin at sampleRate.
func BinFrequency(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / SpectrumSize
}
