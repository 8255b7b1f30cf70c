package processor

// Visualizer receives the final output block of every ProcessBlock call.
// PushBuffer runs on the audio thread and must not block or allocate. The
// slices are only valid during the call.
type Visualizer interface {
	PushBuffer(block [][]float64)
	SetBufferSize(n int)
	SetNumChannels(n int)
}

// clearer is implemented by visualizers that can drop collected data.
type clearer interface {
	Clear()
}
