package params

// Snapshot is a by-value copy of the store taken once per block.
// Accessors return the derived values the DSP stages consume.
type Snapshot struct {
	Version uint64
	Raw     [Count]float64
}

// InputGainDB returns the input gain in dB.
func (s Snapshot) InputGainDB() float64 { return s.Raw[InputGain] }

// ThresholdDB returns the compressor threshold in dB.
func (s Snapshot) ThresholdDB() float64 { return s.Raw[Threshold] }

// ThresholdLinear returns the compressor threshold as linear amplitude.
func (s Snapshot) ThresholdLinear() float64 { return ThresholdLinear(s.Raw[Threshold]) }

// Ratio returns the compression ratio.
func (s Snapshot) Ratio() float64 { return s.Raw[Ratio] }

// AttackMs returns the mapped attack time.
func (s Snapshot) AttackMs() float64 { return AttackMs(s.Raw[Attack]) }

// ReleaseMs returns the mapped release time.
func (s Snapshot) ReleaseMs() float64 { return ReleaseMs(s.Raw[Release]) }

// OutputGainDB returns the output gain in dB.
func (s Snapshot) OutputGainDB() float64 { return s.Raw[OutputGain] }

// WetProportion returns the wet share in [0, 1].
func (s Snapshot) WetProportion() float64 { return WetProportion(s.Raw[Mixer]) }
