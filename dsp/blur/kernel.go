package blur

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxSigma rejects +Inf and absurd spreads whose bins all underflow.
const maxSigma = 1e150

// Kernel is a normalized, non-negative Gaussian blur kernel of
// Diameter x Diameter cells.
type Kernel struct {
	Diameter int
	Sigma    float64

	profile []float64 // 1D bin masses, sums to 1
	values  []float64 // row-major outer product, sums to 1
}

// NewKernel builds the Gaussian kernel for diameter and sigma.
//
// The d+1 bin edges are evenly spaced on [-sigma, sigma]; each bin holds the
// standard normal probability mass between its edges. The 2D kernel is the
// outer product of that profile with itself, normalized to sum to 1.
func NewKernel(diameter int, sigma float64) (*Kernel, error) {
	if err := validateKernel(diameter, sigma); err != nil {
		return nil, err
	}

	profile := gaussianProfile(diameter, sigma)
	if profile == nil {
		return nil, ErrInvalidSigma
	}

	values := make([]float64, diameter*diameter)
	for r, pr := range profile {
		for c, pc := range profile {
			values[r*diameter+c] = pr * pc
		}
	}

	// The outer product of a unit-sum profile already sums to 1; rescaling
	// absorbs the rounding left over from the profile normalization.
	floats.Scale(1/floats.Sum(values), values)

	return &Kernel{
		Diameter: diameter,
		Sigma:    sigma,
		profile:  profile,
		values:   values,
	}, nil
}

// gaussianProfile returns the normalized bin masses, or nil if every bin
// underflows to zero.
func gaussianProfile(diameter int, sigma float64) []float64 {
	edges := make([]float64, diameter+1)
	floats.Span(edges, -sigma, sigma)

	cdf := make([]float64, len(edges))
	for i, x := range edges {
		cdf[i] = distuv.UnitNormal.CDF(x)
	}

	profile := make([]float64, diameter)
	for i := range profile {
		profile[i] = math.Max(cdf[i+1]-cdf[i], 0)
	}

	sum := floats.Sum(profile)
	if !(sum > 0) {
		return nil
	}

	floats.Scale(1/sum, profile)

	return profile
}

// At returns the kernel value at row r, column c.
func (k *Kernel) At(r, c int) float64 {
	return k.values[r*k.Diameter+c]
}

// Values returns a copy of the row-major kernel values.
func (k *Kernel) Values() []float64 {
	out := make([]float64, len(k.values))
	copy(out, k.values)
	return out
}

// Profile returns a copy of the separable 1D profile.
func (k *Kernel) Profile() []float64 {
	out := make([]float64, len(k.profile))
	copy(out, k.profile)
	return out
}

// Sum returns the sum of all kernel values (1 up to rounding).
func (k *Kernel) Sum() float64 {
	return floats.Sum(k.values)
}
