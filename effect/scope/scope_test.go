package scope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/parcomp/internal/testutil"
)

func TestDefaults(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	assert.Equal(t, DefaultBufferSize, s.BufferSize())
	assert.Equal(t, 1, s.NumChannels())
	assert.Equal(t, DefaultSamplesPerPoint, s.SamplesPerPoint())
	assert.Zero(t, s.Points())
}

func TestSettersClamp(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	s.SetBufferSize(8)
	assert.Equal(t, MinBufferSize, s.BufferSize())
	s.SetBufferSize(4096)
	assert.Equal(t, MaxBufferSize, s.BufferSize())
	s.SetBufferSize(512)
	assert.Equal(t, 512, s.BufferSize())

	s.SetNumChannels(0)
	assert.Equal(t, 1, s.NumChannels())
	s.SetNumChannels(6)
	assert.Equal(t, 2, s.NumChannels())
}

func TestPointsCondenseMinMax(t *testing.T) {
	s, err := New(WithSamplesPerPoint(4))
	require.NoError(t, err)
	s.SetNumChannels(2)

	block := [][]float64{
		{0.1, -0.5, 0.3, 0.2, 1, 1, 1, 1, 0.9},
		{0, 0, 0, -1, 0, 0, 0, 0, 0},
	}
	s.PushBuffer(block)

	assert.Equal(t, uint64(2), s.Points())

	wf := s.Waveform()
	require.Len(t, wf.Min, 2)
	assert.Equal(t, []float64{-0.5, 1}, wf.Min[0])
	assert.Equal(t, []float64{0.3, 1}, wf.Max[0])
	assert.Equal(t, []float64{-1, 0}, wf.Min[1])
	assert.Equal(t, []float64{0, 0}, wf.Max[1])
}

func TestMonoShowsFirstChannelOnly(t *testing.T) {
	s, err := New(WithSamplesPerPoint(2))
	require.NoError(t, err)

	s.PushBuffer([][]float64{{0.5, 0.5}, {-1, -1}})
	wf := s.Waveform()
	require.Len(t, wf.Min, 1)
	assert.Equal(t, []float64{0.5}, wf.Min[0])

	// Switching to stereo shows zeros, not infinities, for older points.
	s.SetNumChannels(2)
	wf = s.Waveform()
	assert.Equal(t, []float64{0}, wf.Max[1])
}

func TestWaveformKeepsLatestPoints(t *testing.T) {
	s, err := New(WithSamplesPerPoint(1))
	require.NoError(t, err)
	s.SetBufferSize(MinBufferSize)

	ramp := make([]float64, MaxBufferSize+100)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	s.PushBuffer([][]float64{ramp})

	wf := s.Waveform()
	require.Len(t, wf.Max[0], MinBufferSize)
	assert.Equal(t, float64(len(ramp)-MinBufferSize), wf.Max[0][0])
	assert.Equal(t, float64(len(ramp)-1), wf.Max[0][MinBufferSize-1])
}

func TestClear(t *testing.T) {
	s, err := New(WithSamplesPerPoint(1))
	require.NoError(t, err)

	s.PushBuffer([][]float64{testutil.DC(0.7, 64)})
	require.NotZero(t, s.Points())

	s.Clear()
	assert.Zero(t, s.Points())
	assert.Empty(t, s.Waveform().Max[0])
}

func TestSpectrumPeak(t *testing.T) {
	const sampleRate = 48000.0

	s, err := New()
	require.NoError(t, err)

	// Bin-centred tone: bin 64.
	freq := BinFrequency(64, sampleRate)
	s.PushBuffer([][]float64{testutil.DeterministicSine(freq, sampleRate, 0.5, SpectrumSize)})

	bins, err := s.Spectrum()
	require.NoError(t, err)
	require.Len(t, bins, SpectrumSize/2+1)

	peak := 0
	for i, v := range bins {
		if v > bins[peak] {
			peak = i
		}
	}
	assert.Equal(t, 64, peak)
	assert.InDelta(t, 20*math.Log10(0.5), bins[peak], 0.1)
	assert.Less(t, bins[200], -60.0)
}

func TestSpectrumOfSilence(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	bins, err := s.Spectrum()
	require.NoError(t, err)
	for _, v := range bins {
		assert.Equal(t, -100.0, v)
	}
}

func TestPushBufferDoesNotAllocate(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	s.SetNumChannels(2)
	block := testutil.Replicate(testutil.DeterministicNoise(9, 1, 512), 2)

	allocs := testing.AllocsPerRun(100, func() {
		s.PushBuffer(block)
	})
	assert.Zero(t, allocs)
}
