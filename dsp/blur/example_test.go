package blur_test

import (
	"fmt"

	"github.com/cwbudde/algo-deblur/dsp/blur"
	"github.com/cwbudde/algo-deblur/dsp/core"
)

func ExampleNewKernel() {
	k, _ := blur.NewKernel(3, 1)

	fmt.Printf("Cells: %d\n", len(k.Values()))
	fmt.Printf("Sum: %.4f\n", k.Sum())
	fmt.Printf("Center > corner: %v\n", k.At(1, 1) > k.At(0, 0))

	// Output:
	// Cells: 9
	// Sum: 1.0000
	// Center > corner: true
}

func ExampleOperator_Forward() {
	op, _ := blur.NewOperator(4, 4, 3, 0.5)

	// A normalized kernel leaves a flat image unchanged.
	x, _ := core.NewImage(4, 4)
	for i := range x.Pix {
		x.Pix[i] = 2
	}

	y, _ := op.Forward(x)
	fmt.Printf("%.3f %.3f\n", y.At(0, 0), y.At(3, 3))
	fmt.Printf("Norm: %.3f\n", op.Norm())

	// Output:
	// 2.000 2.000
	// Norm: 1.000
}
