package quality

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// ErrZeroReference is returned when the reference image has zero norm.
var ErrZeroReference = errors.New("quality: reference image has zero norm")

// Report holds the quality figures of one reconstruction.
//
//nolint:revive
type Report struct {
	RelativeError float64 // ‖x_true - x‖ / ‖x_true‖
	MSE           float64
	PSNR_dB       float64 // 20·log10(max(x) / (‖η‖/N))
	PeakPSNR_dB   float64 // 10·log10(peak² / MSE)
	SNR_dB        float64 // 20·log10(‖x_true‖ / ‖x_true - x‖)
}

// Evaluate compares x with the ground truth. noiseNorm is ‖η‖ of the
// observation and peak the nominal maximum intensity (1 for [0, 1] images).
func Evaluate(truth, x *core.Image, noiseNorm, peak float64) (Report, error) {
	rel, err := RelativeError(truth, x)
	if err != nil {
		return Report{}, err
	}

	mse, err := MSE(truth, x)
	if err != nil {
		return Report{}, err
	}

	return Report{
		RelativeError: rel,
		MSE:           mse,
		PSNR_dB:       PSNR(x, noiseNorm),
		PeakPSNR_dB:   peakPSNR(mse, peak),
		SNR_dB:        snr(rel),
	}, nil
}

// RelativeError returns ‖truth - x‖ / ‖truth‖.
func RelativeError(truth, x *core.Image) (float64, error) {
	if err := core.CheckShape(truth, x); err != nil {
		return 0, err
	}

	ref := floats.Norm(truth.Pix, 2)
	if ref == 0 {
		return 0, ErrZeroReference
	}

	return floats.Distance(truth.Pix, x.Pix, 2) / ref, nil
}

// PSNR returns 20·log10(max(x) / (‖η‖/N)) with N the pixel count. This is
// the noise-referenced figure of the reference experiments; it does not
// depend on the ground truth.
func PSNR(x *core.Image, noiseNorm float64) float64 {
	if x == nil || len(x.Pix) == 0 {
		return math.NaN()
	}

	perPixel := noiseNorm / float64(len(x.Pix))
	if perPixel == 0 {
		return math.Inf(1)
	}

	return core.LinearToDB(floats.Max(x.Pix) / perPixel)
}

// MSE returns the mean squared difference between truth and x.
func MSE(truth, x *core.Image) (float64, error) {
	sq, err := SquaredError(truth, x)
	if err != nil {
		return 0, err
	}

	return floats.Sum(sq.Pix) / float64(len(sq.Pix)), nil
}

// SquaredError returns the per-pixel map (truth - x)².
func SquaredError(truth, x *core.Image) (*core.Image, error) {
	if err := core.CheckShape(truth, x); err != nil {
		return nil, err
	}

	out := truth.ZerosLike()
	floats.SubTo(out.Pix, truth.Pix, x.Pix)
	vecmath.MulBlockInPlace(out.Pix, out.Pix)

	return out, nil
}

// PeakPSNR returns 10·log10(peak² / MSE).
func PeakPSNR(truth, x *core.Image, peak float64) (float64, error) {
	if !(peak > 0) {
		return 0, fmt.Errorf("quality: peak must be > 0: %g", peak)
	}

	mse, err := MSE(truth, x)
	if err != nil {
		return 0, err
	}

	return peakPSNR(mse, peak), nil
}

func peakPSNR(mse, peak float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}

	return core.LinearPowerToDB(peak * peak / mse)
}

// SNR returns 20·log10(‖truth‖ / ‖truth - x‖).
func SNR(truth, x *core.Image) (float64, error) {
	rel, err := RelativeError(truth, x)
	if err != nil {
		return 0, err
	}

	return snr(rel), nil
}

func snr(rel float64) float64 {
	if rel == 0 {
		return math.Inf(1)
	}

	return -core.LinearToDB(rel)
}
