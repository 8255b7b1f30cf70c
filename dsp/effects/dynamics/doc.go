// Package dynamics provides the compressor used on the wet path of the
// parallel compression effect.
//
// Compressor is a feed-forward peak compressor with independent per-channel
// gain-reduction envelopes computed in the log2 domain. It supports a hard
// or soft knee, half-life attack and release times, optional makeup gain
// and lightweight metering. Build with the fastmath tag to replace the
// log2/exp2 calls on the per-sample path with algo-approx approximations.
package dynamics
