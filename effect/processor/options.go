package processor

import (
	"github.com/cwbudde/parcomp/dsp/gain"
	"github.com/cwbudde/parcomp/dsp/mix"
)

type config struct {
	gainRampSeconds float64
	mixRampSeconds  float64
	visualizer      Visualizer
}

func defaultConfig() config {
	return config{
		gainRampSeconds: gain.DefaultRampSeconds,
		mixRampSeconds:  mix.DefaultProportionRampSeconds,
	}
}

// Option configures a Processor.
type Option func(*config)

// WithGainRampSeconds sets the ramp time of both gain stages.
func WithGainRampSeconds(seconds float64) Option {
	return func(c *config) {
		if seconds >= 0 {
			c.gainRampSeconds = seconds
		}
	}
}

// WithMixRampSeconds sets the ramp time of the wet proportion.
func WithMixRampSeconds(seconds float64) Option {
	return func(c *config) {
		if seconds >= 0 {
			c.mixRampSeconds = seconds
		}
	}
}

// WithVisualizer installs the sink that receives every processed block.
func WithVisualizer(v Visualizer) Option {
	return func(c *config) {
		c.visualizer = v
	}
}
