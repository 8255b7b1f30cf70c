package params

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Store holds the current raw value of every parameter.
//
// Set and friends may be called from any goroutine; a single writer per
// parameter is expected. Get, Version and Snapshot never block and never
// allocate, so the audio thread may call them.
type Store struct {
	values  [Count]atomic.Uint64
	version atomic.Uint64
}

// NewStore returns a store holding the default values.
func NewStore() *Store {
	s := &Store{}
	for _, d := range descriptors {
		s.values[d.ID].Store(math.Float64bits(d.Default))
	}
	return s
}

// Set stores raw for id after clamping it to the parameter range.
// NaN is rejected and negative zero is stored as zero.
func (s *Store) Set(id ID, raw float64) error {
	if !id.Valid() {
		return fmt.Errorf("set parameter %d: %w", int(id), ErrUnknownParameter)
	}
	if math.IsNaN(raw) {
		return fmt.Errorf("set %s: value must not be NaN", id)
	}

	v := descriptors[id].Clamp(raw)
	if v == 0 {
		v = 0
	}

	bits := math.Float64bits(v)
	if s.values[id].Swap(bits) != bits {
		// Value first, then version: a reader that sees the new version
		// also sees the new value.
		s.version.Add(1)
	}
	return nil
}

// SetByName stores raw for the parameter with the given stable name.
func (s *Store) SetByName(name string, raw float64) error {
	d, err := Lookup(name)
	if err != nil {
		return err
	}
	return s.Set(d.ID, raw)
}

// SetNormalized stores a [0, 1] value mapped onto the parameter range.
func (s *Store) SetNormalized(id ID, normalized float64) error {
	if !id.Valid() {
		return fmt.Errorf("set parameter %d: %w", int(id), ErrUnknownParameter)
	}
	return s.Set(id, descriptors[id].Denormalize(normalized))
}

// Get returns the raw value of id, or NaN for an unknown id.
func (s *Store) Get(id ID) float64 {
	if !id.Valid() {
		return math.NaN()
	}
	return math.Float64frombits(s.values[id].Load())
}

// GetByName returns the raw value of the named parameter.
func (s *Store) GetByName(name string) (float64, error) {
	d, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	return s.Get(d.ID), nil
}

// Version returns a counter that changes whenever any value changes.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Reset restores all defaults.
func (s *Store) Reset() {
	for _, d := range descriptors {
		_ = s.Set(d.ID, d.Default)
	}
}

// Snapshot returns a consistent-enough copy of all values for one block.
// Each value is read atomically. A write racing with the snapshot is
// picked up by the next one because the version is read first.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	snap.Version = s.version.Load()
	for i := range snap.Raw {
		snap.Raw[i] = math.Float64frombits(s.values[i].Load())
	}
	return snap
}

// Values returns the raw values keyed by stable name.
func (s *Store) Values() map[string]float64 {
	out := make(map[string]float64, Count)
	for _, d := range descriptors {
		out[d.Name] = s.Get(d.ID)
	}
	return out
}
