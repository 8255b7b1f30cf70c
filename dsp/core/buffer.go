package core

// EnsureLen resizes buf to n samples. The backing array is reused when it is
// large enough, so callers that size buffers during Prepare never allocate
// again on the audio path.
func EnsureLen(buf []float64, n int) []float64 {
	switch {
	case n <= 0:
		return buf[:0]
	case n <= cap(buf):
		return buf[:n]
	default:
		return make([]float64, n)
	}
}

// BlockLen returns the sample count of the first channel, or 0 for an empty
// block. Blocks are expected to be rectangular.
func BlockLen(block [][]float64) int {
	if len(block) == 0 {
		return 0
	}
	return len(block[0])
}
