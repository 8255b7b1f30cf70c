package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/dsp/buffer"
	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
)

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := addCommonFlags(fs)
	blockSize := fs.Int("block-size", 512, "processing block size in samples")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parcomp render [flags] input.wav output.wav\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}

	store, err := common.store(false)
	if err != nil {
		return err
	}
	return renderFile(fs.Arg(0), fs.Arg(1), store, *blockSize)
}

// renderFile processes the WAV file at inPath into outPath with the
// current parameters. The output keeps the input format.
func renderFile(inPath, outPath string, store *params.Store, blockSize int) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer in.Close()

	src, format, err := wav.Decode(in)
	if err != nil {
		return fmt.Errorf("render %s: %w", inPath, err)
	}

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(float64(format.SampleRate)),
		core.WithBlockSize(blockSize),
		core.WithChannels(format.NumChannels),
	)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("render %s: %w", inPath, err)
	}

	p, err := processor.New(store)
	if err != nil {
		return err
	}
	if err := p.Prepare(cfg.SampleRate, cfg.BlockSize, cfg.Channels, cfg.Channels); err != nil {
		return fmt.Errorf("render %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := wav.Encode(out, newProcessedStreamer(src, p, cfg), format); err != nil {
		_ = out.Close()
		return fmt.Errorf("render %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("render %s: %w", outPath, err)
	}

	m := p.Meters()
	fields := logrus.Fields{
		"function":       "renderFile",
		"input":          inPath,
		"output":         outPath,
		"sample_rate":    cfg.SampleRate,
		"channels":       cfg.Channels,
		"blocks":         m.Blocks,
		"last_reduction": m.GainReductionDB,
	}
	if f := p.Faults(); f.Total() > 0 {
		fields["faults"] = f
		logrus.WithFields(fields).Warn("Rendered with faults")
		return nil
	}
	logrus.WithFields(fields).Info("Rendered")
	return nil
}

// processedStreamer runs the processor over the frames pulled from src.
type processedStreamer struct {
	src   beep.Streamer
	p     *processor.Processor
	block *buffer.Block
}

func newProcessedStreamer(src beep.Streamer, p *processor.Processor, cfg core.ProcessorConfig) *processedStreamer {
	return &processedStreamer{
		src:   src,
		p:     p,
		block: buffer.New(cfg.Channels, cfg.BlockSize),
	}
}

func (s *processedStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.src.Stream(samples)
	for off := 0; off < n; off += s.block.Cap() {
		end := min(off+s.block.Cap(), n)
		views := s.block.SetLen(end - off)
		buffer.DeinterleaveFrames(views, samples[off:end])
		s.p.ProcessBlock(views)
		buffer.InterleaveFrames(samples[off:end], views)
	}
	return n, ok
}

func (s *processedStreamer) Err() error {
	if err := s.src.Err(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}
