package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// RequireImageNearlyEqual fails t if got and want differ in shape or if any
// pixel pair exceeds eps (absolute tolerance).
func RequireImageNearlyEqual(t *testing.T, got, want *core.Image, eps float64) {
	t.Helper()
	if got == nil || want == nil {
		t.Fatalf("nil image: got %v, want %v", got, want)
	}
	if got.Rows != want.Rows || got.Cols != want.Cols {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Rows, got.Cols, want.Rows, want.Cols)
	}
	for i := range got.Pix {
		diff := math.Abs(got.Pix[i] - want.Pix[i])
		if diff > eps {
			t.Fatalf("pixel (%d,%d): got %v, want %v (diff %v > eps %v)",
				i/got.Cols, i%got.Cols, got.Pix[i], want.Pix[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any pixel is NaN or Inf.
func RequireFinite(t *testing.T, im *core.Image) {
	t.Helper()
	for i, v := range im.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("pixel %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute pixel difference between two images.
// Returns an error if the shapes differ.
func MaxAbsDiff(a, b *core.Image) (float64, error) {
	if !a.SameShape(b) {
		return 0, fmt.Errorf("shape mismatch: %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	maxDiff := 0.0
	for i := range a.Pix {
		d := math.Abs(a.Pix[i] - b.Pix[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
