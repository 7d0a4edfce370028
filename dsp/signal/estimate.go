package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// ErrImageTooSmall is returned when an image has no interior pixels.
var ErrImageTooSmall = errors.New("signal: noise estimation needs at least 3x3 pixels")

// laplaceMask is the difference of two discrete Laplacians; it cancels
// constant and linear intensity and leaves noise with std 6σ.
var laplaceMask = [9]float64{
	1, -2, 1,
	-2, 4, -2,
	1, -2, 1,
}

// madScale converts a median absolute deviation into a Gaussian std.
const madScale = 0.6744897501960817

// laplaceResponses returns the mask response at every interior pixel.
func laplaceResponses(im *core.Image) ([]float64, error) {
	if im == nil || im.Rows < 3 || im.Cols < 3 {
		return nil, ErrImageTooSmall
	}

	out := make([]float64, 0, (im.Rows-2)*(im.Cols-2))

	for r := 1; r < im.Rows-1; r++ {
		for c := 1; c < im.Cols-1; c++ {
			var sum float64
			for i := -1; i <= 1; i++ {
				for j := -1; j <= 1; j++ {
					sum += laplaceMask[(i+1)*3+j+1] * im.At(r+i, c+j)
				}
			}
			out = append(out, sum)
		}
	}

	return out, nil
}

// EstimateNoise returns the standard deviation of additive Gaussian noise in
// im from the mean absolute Laplacian response (Immerkær, 1996). Edges in im
// bias the estimate upwards.
func EstimateNoise(im *core.Image) (float64, error) {
	resp, err := laplaceResponses(im)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, v := range resp {
		sum += math.Abs(v)
	}

	return math.Sqrt(0.5*math.Pi) * sum / (6 * float64(len(resp))), nil
}

// EstimateNoiseMAD is EstimateNoise with the mean replaced by the median
// absolute deviation, which tolerates sparse edges better.
func EstimateNoiseMAD(im *core.Image) (float64, error) {
	resp, err := laplaceResponses(im)
	if err != nil {
		return 0, err
	}

	mad, err := stats.MedianAbsoluteDeviation(resp)
	if err != nil {
		return 0, fmt.Errorf("signal: %w", err)
	}

	return mad / madScale / 6, nil
}

// EstimateNoiseNorm returns the expected Frobenius norm σ·√N of the noise
// in im, suitable as the noise norm of a discrepancy search.
func EstimateNoiseNorm(im *core.Image) (float64, error) {
	sigma, err := EstimateNoiseMAD(im)
	if err != nil {
		return 0, err
	}

	return sigma * math.Sqrt(float64(im.Len())), nil
}
