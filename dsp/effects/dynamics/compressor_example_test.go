package dynamics_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/parcomp/dsp/effects/dynamics"
)

// ExampleCompressor demonstrates stereo block processing.
func ExampleCompressor() {
	comp, err := dynamics.NewCompressor(48000)
	if err != nil {
		panic(err)
	}

	if err := comp.Prepare(48000, 256, 2); err != nil {
		panic(err)
	}

	block := [][]float64{make([]float64, 256), make([]float64, 256)}
	comp.ProcessBlock(block)

	fmt.Printf("channels=%d reduction=%.1f dB\n", comp.Channels(), comp.GainReductionDB())
	// Output:
	// channels=2 reduction=0.0 dB
}

// ExampleCompressor_configuration demonstrates configuring compressor parameters.
func ExampleCompressor_configuration() {
	comp, _ := dynamics.NewCompressor(48000)

	_ = comp.SetThreshold(-10.0)
	_ = comp.SetRatio(8.0)
	_ = comp.SetKnee(3.0)
	_ = comp.SetAttack(5.0)
	_ = comp.SetRelease(50.0)

	buf := make([]float64, 256)
	for i := range buf {
		buf[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/48000)
	}

	comp.ProcessInPlace(buf)

	fmt.Println("Configured compressor parameters:")
	fmt.Printf("Threshold: %.1f dB\n", comp.Threshold())
	fmt.Printf("Ratio: %.1f:1\n", comp.Ratio())
	fmt.Printf("Knee: %.1f dB\n", comp.Knee())
	// Output:
	// Configured compressor parameters:
	// Threshold: -10.0 dB
	// Ratio: 8.0:1
	// Knee: 3.0 dB
}

// ExampleCompressor_CalculateOutputLevel prints points of the static curve.
func ExampleCompressor_CalculateOutputLevel() {
	comp, _ := dynamics.NewCompressor(48000)
	_ = comp.SetThreshold(-12)
	_ = comp.SetRatio(4)

	for _, inDB := range []float64{-24, -12, -6, 0} {
		out := comp.CalculateOutputLevel(math.Pow(10, inDB/20))
		fmt.Printf("%5.1f dB -> %5.1f dB\n", inDB, 20*math.Log10(out))
	}
	// Output:
	// -24.0 dB -> -24.0 dB
	// -12.0 dB -> -12.0 dB
	//  -6.0 dB -> -10.5 dB
	//   0.0 dB ->  -9.0 dB
}
