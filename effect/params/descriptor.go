package params

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cwbudde/parcomp/dsp/core"
)

// ID identifies a parameter. IDs are dense and index Snapshot values.
type ID int

// Parameter IDs.
const (
	InputGain ID = iota
	Threshold
	Ratio
	Attack
	Release
	OutputGain
	Mixer

	// Count is the number of parameters.
	Count
)

// ErrUnknownParameter is returned for IDs or names outside the parameter set.
var ErrUnknownParameter = errors.New("unknown parameter")

// Descriptor describes one parameter: its stable name, range, default and
// display unit.
type Descriptor struct {
	ID      ID
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string

	format func(raw float64) string
}

var descriptors = [Count]Descriptor{
	{ID: InputGain, Name: "input gain", Min: -24, Max: 24, Default: 0, Unit: "dB", format: formatDecibels},
	{ID: Threshold, Name: "threshold", Min: -36, Max: 0, Default: 0, Unit: "dB", format: formatDecibels},
	{ID: Ratio, Name: "ratio", Min: 1, Max: 10, Default: 3, Unit: ":1", format: formatRatio},
	{ID: Attack, Name: "attack", Min: 0, Max: 10, Default: 3, Unit: "ms", format: func(raw float64) string {
		return formatMilliseconds(AttackMs(raw))
	}},
	{ID: Release, Name: "release", Min: 0, Max: 10, Default: 3, Unit: "ms", format: func(raw float64) string {
		return formatMilliseconds(ReleaseMs(raw))
	}},
	{ID: OutputGain, Name: "output gain", Min: -24, Max: 24, Default: 0, Unit: "dB", format: formatDecibels},
	{ID: Mixer, Name: "mixer", Min: 0, Max: 100, Default: 100, Unit: "%", format: formatPercent},
}

var byName = func() map[string]ID {
	m := make(map[string]ID, Count)
	for _, d := range descriptors {
		m[d.Name] = d.ID
	}
	return m
}()

// Descriptors returns all descriptors in ID order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, Count)
	copy(out, descriptors[:])
	return out
}

// DescriptorOf returns the descriptor for id.
func DescriptorOf(id ID) (Descriptor, error) {
	if !id.Valid() {
		return Descriptor{}, fmt.Errorf("parameter id %d: %w", int(id), ErrUnknownParameter)
	}
	return descriptors[id], nil
}

// Lookup returns the descriptor with the given stable name.
func Lookup(name string) (Descriptor, error) {
	id, ok := byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("parameter %q: %w", name, ErrUnknownParameter)
	}
	return descriptors[id], nil
}

// Valid reports whether id names a parameter.
func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

// String returns the stable parameter name.
func (id ID) String() string {
	if !id.Valid() {
		return "ID(" + strconv.Itoa(int(id)) + ")"
	}
	return descriptors[id].Name
}

// Clamp limits raw to the descriptor's range.
func (d Descriptor) Clamp(raw float64) float64 {
	return core.Clamp(raw, d.Min, d.Max)
}

// Normalize maps raw onto [0, 1].
func (d Descriptor) Normalize(raw float64) float64 {
	if d.Max <= d.Min {
		return 0
	}
	return (d.Clamp(raw) - d.Min) / (d.Max - d.Min)
}

// Denormalize maps a [0, 1] value back onto the raw range.
func (d Descriptor) Denormalize(normalized float64) float64 {
	return d.Min + core.Clamp(normalized, 0, 1)*(d.Max-d.Min)
}

// Format renders raw for display, applying the time mapping for attack and
// release.
func (d Descriptor) Format(raw float64) string {
	if d.format == nil {
		return strconv.FormatFloat(raw, 'f', 2, 64)
	}
	return d.format(raw)
}

func formatDecibels(v float64) string {
	return fmt.Sprintf("%.1f dB", v)
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.1f:1", v)
}

func formatMilliseconds(v float64) string {
	return fmt.Sprintf("%.1f ms", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f %%", math.Round(v))
}
