package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/internal/testutil"
)

// sliceStreamer plays back frames once.
type sliceStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

func stereoFrames(left, right []float64) [][2]float64 {
	frames := make([][2]float64, len(left))
	for i := range frames {
		frames[i] = [2]float64{left[i], right[i]}
	}
	return frames
}

func readAll(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 333)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestProcessedStreamerMatchesProcessor(t *testing.T) {
	store := params.NewStore()
	require.NoError(t, store.Set(params.Threshold, -20))
	require.NoError(t, store.Set(params.Ratio, 6))
	require.NoError(t, store.Set(params.Mixer, 50))

	cfg := core.ApplyProcessorOptions(core.WithSampleRate(44100), core.WithBlockSize(128))

	left := testutil.DeterministicNoise(1, 0.8, 5000)
	right := testutil.DeterministicNoise(2, 0.8, 5000)

	p, err := processor.New(store)
	require.NoError(t, err)
	require.NoError(t, p.Prepare(cfg.SampleRate, cfg.BlockSize, 2, 2))
	got := readAll(newProcessedStreamer(&sliceStreamer{frames: stereoFrames(left, right)}, p, cfg))

	ref, err := processor.New(store)
	require.NoError(t, err)
	require.NoError(t, ref.Prepare(cfg.SampleRate, cfg.BlockSize, 2, 2))
	want := [][]float64{append([]float64(nil), left...), append([]float64(nil), right...)}
	ref.ProcessBlock(want)

	require.Len(t, got, len(left))
	for i := range got {
		require.InDelta(t, want[0][i], got[i][0], 1e-12, "left %d", i)
		require.InDelta(t, want[1][i], got[i][1], 1e-12, "right %d", i)
	}
	assert.Zero(t, p.Faults().Total())
}

func writeWAV(t *testing.T, path string, frames [][2]float64, channels int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	format := beep.Format{SampleRate: 44100, NumChannels: channels, Precision: 2}
	require.NoError(t, wav.Encode(f, &sliceStreamer{frames: frames}, format))
	require.NoError(t, f.Close())
}

func readWAV(t *testing.T, path string) ([][2]float64, beep.Format) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, format, err := wav.Decode(f)
	require.NoError(t, err)
	return readAll(s), format
}

func TestRenderFileAppliesGain(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")

	sine := testutil.DeterministicSine(440, 44100, 0.5, 8000)
	writeWAV(t, inPath, stereoFrames(sine, sine), 2)

	store := params.NewStore()
	require.NoError(t, store.Set(params.InputGain, -6))

	require.NoError(t, renderFile(inPath, outPath, store, 256))

	in, _ := readWAV(t, inPath)
	out, format := readWAV(t, outPath)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, beep.SampleRate(44100), format.SampleRate)

	require.Len(t, out, len(in))
	g := core.DBToLinear(-6)
	for i := range in {
		require.InDelta(t, in[i][0]*g, out[i][0], 1e-3, "frame %d", i)
		require.InDelta(t, in[i][1]*g, out[i][1], 1e-3, "frame %d", i)
	}
}

func TestRenderFileMono(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "mono.wav")
	outPath := filepath.Join(dir, "mono-out.wav")

	dc := testutil.DC(0.25, 2000)
	writeWAV(t, inPath, stereoFrames(dc, dc), 1)

	require.NoError(t, renderFile(inPath, outPath, params.NewStore(), 512))

	out, format := readWAV(t, outPath)
	assert.Equal(t, 1, format.NumChannels)
	require.Len(t, out, 2000)
	assert.InDelta(t, 0.25, out[1999][0], 1e-3)
}

func TestRenderFileErrors(t *testing.T) {
	dir := t.TempDir()
	store := params.NewStore()

	assert.Error(t, renderFile(filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"), store, 512))

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("not a wave file"), 0o644))
	assert.Error(t, renderFile(junk, filepath.Join(dir, "out.wav"), store, 512))
}
