// Package params holds the effect's seven parameters.
//
// A Store publishes raw parameter values from the control thread to the
// audio thread without locks: each value is an atomic float64 bit pattern
// and a store-wide version counter advances after every change. The audio
// thread takes one Snapshot per block and recomputes coefficients only when
// the version moved.
package params
