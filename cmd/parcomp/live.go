package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/dsp/buffer"
	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/effect/scope"
	"github.com/cwbudde/parcomp/internal/server"
)

func runLive(args []string) error {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	common := addCommonFlags(fs)
	sampleRate := fs.Float64("sample-rate", 48000, "stream sample rate in Hz")
	blockSize := fs.Int("block-size", 256, "frames per device buffer")
	channels := fs.Int("channels", 2, "channel count (1 or 2)")
	httpAddr := fs.String("http", "", "serve the control API and scope stream on this address")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parcomp live [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Processes the default input device into the default output device.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nKeys:\n%s", keyHelp)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(*sampleRate),
		core.WithBlockSize(*blockSize),
		core.WithChannels(*channels),
	)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("live: %w", err)
	}

	store, err := common.store(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scope.New()
	if err != nil {
		return err
	}
	sc.SetNumChannels(cfg.Channels)

	p, err := processor.New(store, processor.WithVisualizer(sc))
	if err != nil {
		return err
	}
	if err := p.Prepare(cfg.SampleRate, cfg.BlockSize, cfg.Channels, cfg.Channels); err != nil {
		return fmt.Errorf("live: %w", err)
	}
	defer p.ReleaseResources()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	engine := newLiveEngine(p, cfg)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, cfg.Channels, cfg.SampleRate, cfg.BlockSize, engine.process)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer func() { _ = stream.Stop() }()

	logrus.WithFields(logrus.Fields{
		"function":    "runLive",
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
		"channels":    cfg.Channels,
	}).Info("Live stream started")

	if *httpAddr != "" {
		srv, err := server.New(store, server.WithScope(sc), server.WithSource(p))
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx, *httpAddr); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "runLive",
					"error":    err.Error(),
				}).Error("Scope server stopped")
			}
		}()
	}

	ctrl := newController(store, common.statePath, os.Stdout)
	return ctrl.run(ctx, p)
}

// liveEngine adapts the processor to PortAudio's non-interleaved float32
// callback. It runs on the audio thread.
type liveEngine struct {
	p       *processor.Processor
	block   *buffer.Block
	inView  [][]float32
	outView [][]float32
}

func newLiveEngine(p *processor.Processor, cfg core.ProcessorConfig) *liveEngine {
	return &liveEngine{
		p:       p,
		block:   buffer.New(cfg.Channels, cfg.BlockSize),
		inView:  make([][]float32, cfg.Channels),
		outView: make([][]float32, cfg.Channels),
	}
}

func (e *liveEngine) process(in, out [][]float32) {
	if len(out) == 0 {
		return
	}
	n := len(out[0])
	size := e.block.Cap()

	for off := 0; off < n; off += size {
		end := min(off+size, n)
		inView := e.inView[:min(len(in), len(e.inView))]
		for ch := range inView {
			inView[ch] = in[ch][off:end]
		}
		outView := e.outView[:min(len(out), len(e.outView))]
		for ch := range outView {
			outView[ch] = out[ch][off:end]
		}

		views := e.block.SetLen(end - off)
		buffer.FromFloat32(views, inView)
		e.p.ProcessBlock(views)
		buffer.ToFloat32(outView, views)
	}
}
