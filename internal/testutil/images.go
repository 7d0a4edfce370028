package testutil

import (
	"math/rand"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// RandomImage returns a rows x cols image of uniform values in [-1, 1] drawn
// from a fixed seed.
func RandomImage(seed int64, rows, cols int) *core.Image {
	rng := rand.New(rand.NewSource(seed))
	im := mustImage(rows, cols)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()*2 - 1
	}
	return im
}

// Constant returns a rows x cols image filled with value.
func Constant(rows, cols int, value float64) *core.Image {
	im := mustImage(rows, cols)
	for i := range im.Pix {
		im.Pix[i] = value
	}
	return im
}

// Checkerboard returns the highest-frequency pattern amplitude*(-1)^(r+c).
func Checkerboard(rows, cols int, amplitude float64) *core.Image {
	im := mustImage(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if (r+c)%2 == 0 {
				im.Set(r, c, amplitude)
			} else {
				im.Set(r, c, -amplitude)
			}
		}
	}
	return im
}

// Impulse returns an image with a single 1 at (r, c).
func Impulse(rows, cols, r, c int) *core.Image {
	im := mustImage(rows, cols)
	im.Set(r, c, 1)
	return im
}

// Inner returns sum(a[i]*b[i]).
func Inner(a, b *core.Image) float64 {
	var sum float64
	for i := range a.Pix {
		sum += a.Pix[i] * b.Pix[i]
	}
	return sum
}

func mustImage(rows, cols int) *core.Image {
	im, err := core.NewImage(rows, cols)
	if err != nil {
		panic(err)
	}
	return im
}
