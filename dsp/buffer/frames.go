package buffer

// DeinterleaveFrames copies stereo frames into planar channels. Mono
// destinations receive the average of both frame channels. It returns the
// number of frames written.
func DeinterleaveFrames(dst [][]float64, frames [][2]float64) int {
	if len(dst) == 0 {
		return 0
	}

	n := min(len(frames), len(dst[0]))
	if len(dst) == 1 {
		for i := range n {
			dst[0][i] = 0.5 * (frames[i][0] + frames[i][1])
		}
		return n
	}

	for i := range n {
		dst[0][i] = frames[i][0]
		dst[1][i] = frames[i][1]
	}

	return n
}

// InterleaveFrames writes planar channels into stereo frames. A mono source
// is duplicated to both frame channels.
func InterleaveFrames(frames [][2]float64, src [][]float64) int {
	if len(src) == 0 {
		return 0
	}

	n := min(len(frames), len(src[0]))
	right := src[0]
	if len(src) > 1 {
		right = src[1]
	}

	for i := range n {
		frames[i][0] = src[0][i]
		frames[i][1] = right[i]
	}

	return n
}

// FromFloat32 converts planar float32 host buffers into the block.
func FromFloat32(dst [][]float64, src [][]float32) {
	for ch := 0; ch < len(dst) && ch < len(src); ch++ {
		d := dst[ch]
		for i, v := range src[ch][:min(len(d), len(src[ch]))] {
			d[i] = float64(v)
		}
	}
}

// ToFloat32 converts planar float64 channels into float32 host buffers.
func ToFloat32(dst [][]float32, src [][]float64) {
	for ch := 0; ch < len(dst) && ch < len(src); ch++ {
		d := dst[ch]
		for i, v := range src[ch][:min(len(d), len(src[ch]))] {
			d[i] = float32(v)
		}
	}
}
