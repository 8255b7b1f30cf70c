// Package buffer provides a preallocated multichannel block for real-time
// processing. A Block owns one contiguous backing array split into
// per-channel views, so resizing within capacity never allocates. DSP code
// still accepts raw [][]float64; Channels() bridges the two.
package buffer
