package buffer

import "testing"

func TestNewZeroFilled(t *testing.T) {
	b := New(2, 8)
	if b.NumChannels() != 2 || b.Len() != 8 || b.Cap() != 8 {
		t.Fatalf("shape = %d x %d (cap %d), want 2 x 8", b.NumChannels(), b.Len(), b.Cap())
	}
	for ch, samples := range b.Channels() {
		for i, v := range samples {
			if v != 0 {
				t.Fatalf("Channels()[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestNewNegativeShape(t *testing.T) {
	b := New(-1, -4)
	if b.NumChannels() != 0 || b.Len() != 0 {
		t.Fatalf("shape = %d x %d, want empty", b.NumChannels(), b.Len())
	}
}

func TestSetLenClampsAndKeepsChannelsDisjoint(t *testing.T) {
	b := New(2, 4)
	b.SetLen(10)
	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}

	views := b.SetLen(2)
	if len(views[0]) != 2 || len(views[1]) != 2 {
		t.Fatalf("view lengths = %d/%d, want 2", len(views[0]), len(views[1]))
	}

	// Appending to a view must not spill into the next channel.
	views[0] = append(views[0], 1, 2, 3)
	b.SetLen(4)
	if b.Channel(1)[0] != 0 {
		t.Fatalf("channel 1 overwritten: %v", b.Channel(1))
	}
}

func TestSetLenDoesNotAllocate(t *testing.T) {
	b := New(2, 512)
	allocs := testing.AllocsPerRun(100, func() {
		b.SetLen(128)
		b.SetLen(512)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}

func TestCopyFromZeroesMissingChannels(t *testing.T) {
	b := New(2, 4)
	b.Channel(1)[0] = 7

	n := b.CopyFrom([][]float64{{1, 2, 3}})
	if n != 3 {
		t.Fatalf("CopyFrom = %d, want 3", n)
	}
	if b.Channel(0)[2] != 3 {
		t.Fatalf("channel 0 = %v", b.Channel(0))
	}
	if b.Channel(1)[0] != 0 {
		t.Fatalf("channel 1 = %v, want zeros", b.Channel(1))
	}
}

func TestCopyToAndSameShape(t *testing.T) {
	b := New(2, 3)
	b.CopyFrom([][]float64{{1, 2, 3}, {4, 5, 6}})

	dst := [][]float64{make([]float64, 3), make([]float64, 3)}
	b.CopyTo(dst)
	if dst[1][2] != 6 {
		t.Fatalf("dst = %v", dst)
	}

	if !b.SameShape(dst) {
		t.Fatal("expected same shape")
	}
	if b.SameShape(dst[:1]) {
		t.Fatal("expected channel mismatch")
	}
	if b.SameShape([][]float64{{1, 2}, {3, 4}}) {
		t.Fatal("expected length mismatch")
	}
}
