// Package processor wires the parallel compression signal path.
//
// Per block a Processor adopts the latest parameter snapshot, captures the
// dry signal, runs input gain, compressor and output gain on the wet path,
// blends wet and dry and finally hands the block to an optional
// Visualizer. ProcessBlock is meant for the audio thread: it does not
// allocate, lock, log or return errors. Problems on that path are counted
// and surface through Faults on the control side.
package processor
