package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/parcomp/dsp/core"
)

// Defaults match a gentle 3:1 bus setting.
const (
	DefaultThresholdDB = 0.0
	DefaultRatio       = 3.0
	DefaultKneeDB      = 0.0
	DefaultAttackMs    = 12.0
	DefaultReleaseMs   = 125.0
)

// Accepted parameter ranges.
const (
	MinRatio     = 1.0
	MaxRatio     = 100.0
	MinAttackMs  = 0.1
	MaxAttackMs  = 1000.0
	MinReleaseMs = 1.0
	MaxReleaseMs = 5000.0
	MinKneeDB    = 0.0
	MaxKneeDB    = 24.0
)

// Metrics are the peak levels and the smallest applied gain since the last
// ResetMetrics.
type Metrics struct {
	InputPeak  float64
	OutputPeak float64
	MinGain    float64
}

// Compressor is a feed-forward peak compressor with a per-channel
// gain-reduction envelope kept in the log2 domain.
//
// Each sample's magnitude is mapped through the static curve to a wanted
// reduction. The envelope moves towards it with the attack coefficient when
// more reduction is needed and with the release coefficient otherwise, so
// attack and release act on the reduction itself rather than on the
// detected level. Both times are half-lives: attackMs after a step the
// envelope has covered half of the distance to a louder target.
//
// A soft knee blends into the ratio with a quadratic segment of the
// configured width centred on the threshold. A ratio of 1 is an exact
// pass-through.
//
// A Compressor is not safe for concurrent use. Its owner applies parameter
// changes between blocks.
type Compressor struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	attackMs    float64
	releaseMs   float64
	makeupDB    float64
	autoMakeup  bool
	sampleRate  float64

	curve   curve
	attack  float64 // fraction of the distance covered per sample
	release float64 // fraction of the distance kept per sample
	makeup  float64

	// Reduction envelope per channel, log2 units, >= 0.
	env []float64

	// Largest envelope value of the current ProcessBlock call.
	blockPeak float64

	metrics Metrics
}

// NewCompressor returns a compressor for up to core.MaxChannels channels
// with the package defaults: threshold 0 dB, ratio 3:1, hard knee, 12 ms
// attack, 125 ms release and no makeup gain.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if err := checkSampleRate(sampleRate); err != nil {
		return nil, err
	}

	c := &Compressor{
		thresholdDB: DefaultThresholdDB,
		ratio:       DefaultRatio,
		kneeDB:      DefaultKneeDB,
		attackMs:    DefaultAttackMs,
		releaseMs:   DefaultReleaseMs,
		sampleRate:  sampleRate,
		env:         make([]float64, core.MaxChannels),
	}
	c.updateCurve()
	c.Reset()
	return c, nil
}

// Prepare sets the stream format and resets the envelopes. Envelope storage
// only grows.
func (c *Compressor) Prepare(sampleRate float64, maxBlockSize, channels int) error {
	if err := checkSampleRate(sampleRate); err != nil {
		return err
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("compressor block size must be > 0: %d", maxBlockSize)
	}
	if channels <= 0 {
		return fmt.Errorf("compressor channel count must be > 0: %d", channels)
	}

	c.sampleRate = sampleRate
	if cap(c.env) < channels {
		c.env = make([]float64, channels)
	}
	c.env = c.env[:channels]

	c.updateTiming()
	c.Reset()
	return nil
}

// SetThreshold sets the threshold in dB.
func (c *Compressor) SetThreshold(dB float64) error {
	if err := checkFinite("threshold", dB); err != nil {
		return err
	}
	c.thresholdDB = dB
	c.updateCurve()
	return nil
}

// SetRatio sets the compression ratio. 1 disables compression; large values
// approach limiting.
func (c *Compressor) SetRatio(ratio float64) error {
	if err := checkRange("ratio", ratio, MinRatio, MaxRatio); err != nil {
		return err
	}
	c.ratio = ratio
	c.updateCurve()
	return nil
}

// SetKnee sets the soft-knee width in dB; 0 selects the hard knee.
func (c *Compressor) SetKnee(dB float64) error {
	if err := checkRange("knee", dB, MinKneeDB, MaxKneeDB); err != nil {
		return err
	}
	c.kneeDB = dB
	c.updateCurve()
	return nil
}

// SetAttack sets the attack half-life in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if err := checkRange("attack", ms, MinAttackMs, MaxAttackMs); err != nil {
		return err
	}
	c.attackMs = ms
	c.updateTiming()
	return nil
}

// SetRelease sets the release half-life in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if err := checkRange("release", ms, MinReleaseMs, MaxReleaseMs); err != nil {
		return err
	}
	c.releaseMs = ms
	c.updateTiming()
	return nil
}

// SetMakeupGain sets a fixed makeup gain in dB and turns auto makeup off.
func (c *Compressor) SetMakeupGain(dB float64) error {
	if err := checkFinite("makeup gain", dB); err != nil {
		return err
	}
	c.makeupDB = dB
	c.autoMakeup = false
	c.updateCurve()
	return nil
}

// SetAutoMakeup derives the makeup gain from threshold and ratio so that a
// full-scale signal keeps its level.
func (c *Compressor) SetAutoMakeup(enable bool) {
	c.autoMakeup = enable
	c.updateCurve()
}

// SetSampleRate changes the sample rate without touching the envelopes.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if err := checkSampleRate(sampleRate); err != nil {
		return err
	}
	c.sampleRate = sampleRate
	c.updateTiming()
	return nil
}

// Current settings; MakeupGain reflects the derived value under auto makeup.
func (c *Compressor) Threshold() float64  { return c.thresholdDB }
func (c *Compressor) Ratio() float64      { return c.ratio }
func (c *Compressor) Knee() float64       { return c.kneeDB }
func (c *Compressor) Attack() float64     { return c.attackMs }
func (c *Compressor) Release() float64    { return c.releaseMs }
func (c *Compressor) MakeupGain() float64 { return c.makeupDB }
func (c *Compressor) AutoMakeup() bool    { return c.autoMakeup }
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// Channels returns the number of independent envelopes.
func (c *Compressor) Channels() int { return len(c.env) }

// ProcessSample compresses one sample of channel ch. Channels outside the
// prepared range pass through unchanged.
func (c *Compressor) ProcessSample(x float64, ch int) float64 {
	if ch < 0 || ch >= len(c.env) {
		return x
	}

	level := math.Abs(x)
	want := c.curve.reduction(level)

	e := c.env[ch]
	if want > e {
		e += (want - e) * c.attack
	} else {
		e = want + (e-want)*c.release
	}
	e = core.FlushDenormals(e)
	c.env[ch] = e

	g := 1.0
	if e > 0 {
		g = attenuation(e)
	}
	y := x * g * c.makeup

	c.blockPeak = max(c.blockPeak, e)
	c.metrics.InputPeak = max(c.metrics.InputPeak, level)
	c.metrics.OutputPeak = max(c.metrics.OutputPeak, math.Abs(y))
	c.metrics.MinGain = min(c.metrics.MinGain, g)

	return y
}

// ProcessBlock compresses block in place, one envelope per channel.
// Channels beyond the prepared count are left untouched.
func (c *Compressor) ProcessBlock(block [][]float64) {
	c.blockPeak = 0
	for ch := 0; ch < len(block) && ch < len(c.env); ch++ {
		samples := block[ch]
		for i, x := range samples {
			samples[i] = c.ProcessSample(x, ch)
		}
	}
}

// ProcessInPlace compresses a mono buffer with the first envelope.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = c.ProcessSample(x, 0)
	}
}

// CalculateOutputLevel returns the settled output magnitude for a constant
// input magnitude, i.e. a point of the static curve including makeup.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	level := math.Abs(inputMagnitude)
	if r := c.curve.reduction(level); r > 0 {
		return level * attenuation(r) * c.makeup
	}
	return level * c.makeup
}

// GainReductionDB returns the largest reduction applied during the last
// ProcessBlock call as a non-negative dB value.
func (c *Compressor) GainReductionDB() float64 {
	return c.blockPeak / log2PerDB
}

// EnvelopeDB returns the current reduction of channel ch in dB.
func (c *Compressor) EnvelopeDB(ch int) float64 {
	if ch < 0 || ch >= len(c.env) {
		return 0
	}
	return c.env[ch] / log2PerDB
}

// Reset clears the envelopes and metrics.
func (c *Compressor) Reset() {
	clear(c.env)
	c.blockPeak = 0
	c.ResetMetrics()
}

// Metrics returns the metering state.
func (c *Compressor) Metrics() Metrics { return c.metrics }

// ResetMetrics clears the metering state.
func (c *Compressor) ResetMetrics() {
	c.metrics = Metrics{MinGain: 1}
}

func (c *Compressor) updateCurve() {
	c.curve = newCurve(c.thresholdDB, c.ratio, c.kneeDB)

	if c.autoMakeup {
		c.makeupDB = -c.thresholdDB * c.curve.slope
	}
	c.makeup = 1
	if c.makeupDB != 0 {
		c.makeup = core.DBToLinear(c.makeupDB)
	}

	c.updateTiming()
}

func (c *Compressor) updateTiming() {
	c.attack = 1 - halfLife(c.attackMs, c.sampleRate)
	c.release = halfLife(c.releaseMs, c.sampleRate)
}

func checkSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if !core.IsFinite(v) {
		return fmt.Errorf("compressor %s must be finite: %f", name, v)
	}
	return nil
}

func checkRange(name string, v, lo, hi float64) error {
	if !core.IsFinite(v) || v < lo || v > hi {
		return fmt.Errorf("compressor %s must be in [%f, %f]: %f", name, lo, hi, v)
	}
	return nil
}
