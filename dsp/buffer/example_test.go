package buffer_test

import (
	"fmt"

	"github.com/cwbudde/parcomp/dsp/buffer"
)

func ExampleBlock() {
	b := buffer.New(2, 4)
	b.CopyFrom([][]float64{{1, 2, 3}, {4, 5, 6}})

	fmt.Println(b.Channels())
	fmt.Println(b.Len(), b.Cap())

	// Output:
	// [[1 2 3] [4 5 6]]
	// 3 4
}
