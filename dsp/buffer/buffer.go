package buffer

// Block is a fixed-capacity set of equally long channel slices.
type Block struct {
	data     []float64
	views    [][]float64
	capacity int
	length   int
}

// New returns a zero-filled Block with the given channel count and
// per-channel capacity. The initial length equals the capacity.
func New(channels, capacity int) *Block {
	if channels < 0 {
		channels = 0
	}
	if capacity < 0 {
		capacity = 0
	}

	b := &Block{
		data:     make([]float64, channels*capacity),
		views:    make([][]float64, channels),
		capacity: capacity,
	}
	b.SetLen(capacity)

	return b
}

// Channels returns the per-channel views at the current length.
// The returned slices alias the block's storage.
func (b *Block) Channels() [][]float64 {
	return b.views
}

// Channel returns the view of channel ch.
func (b *Block) Channel(ch int) []float64 {
	return b.views[ch]
}

// NumChannels returns the channel count.
func (b *Block) NumChannels() int {
	return len(b.views)
}

// Len returns the current per-channel length.
func (b *Block) Len() int {
	return b.length
}

// Cap returns the per-channel capacity.
func (b *Block) Cap() int {
	return b.capacity
}

// SetLen reslices every channel to n samples, clamped to [0, Cap()], and
// returns the views. It never allocates.
func (b *Block) SetLen(n int) [][]float64 {
	if n < 0 {
		n = 0
	}
	if n > b.capacity {
		n = b.capacity
	}

	for ch := range b.views {
		start := ch * b.capacity
		b.views[ch] = b.data[start : start+n : start+b.capacity]
	}
	b.length = n

	return b.views
}

// Zero clears the samples of all channels at the current length.
func (b *Block) Zero() {
	for _, ch := range b.views {
		clear(ch)
	}
}

// CopyFrom resizes the block to the length of src and copies it channel by
// channel. Channels missing from src are zeroed, extra source channels are
// ignored. It returns the number of samples copied per channel.
func (b *Block) CopyFrom(src [][]float64) int {
	n := 0
	if len(src) > 0 {
		n = len(src[0])
	}
	b.SetLen(n)

	for ch, dst := range b.views {
		if ch < len(src) {
			copy(dst, src[ch])
			continue
		}
		clear(dst)
	}

	return b.length
}

// CopyTo copies the block into dst channel by channel, limited by the
// shorter of the two shapes.
func (b *Block) CopyTo(dst [][]float64) {
	for ch := 0; ch < len(dst) && ch < len(b.views); ch++ {
		copy(dst[ch], b.views[ch])
	}
}

// SameShape reports whether block has the block's channel count and length.
func (b *Block) SameShape(block [][]float64) bool {
	if len(block) != len(b.views) {
		return false
	}
	for _, ch := range block {
		if len(ch) != b.length {
			return false
		}
	}
	return true
}
