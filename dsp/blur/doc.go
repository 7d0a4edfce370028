// Package blur implements the Gaussian blur operator used by the deblurring
// solvers.
//
// A blur is described by a square [Kernel] of diameter d and spread sigma.
// The kernel bins are the Gaussian probability mass over d equal intervals of
// [-sigma, sigma], normalized so the 2D outer product sums to 1. Larger sigma
// therefore concentrates the mass in the central bins.
//
// [Operator] applies the blur to an m x n image in the frequency domain: the
// kernel is zero-padded to m x n with its first cell at the origin, both are
// transformed with a 2D FFT, multiplied elementwise and transformed back.
// This realizes circular (periodic) convolution without ever forming the
// mn x mn blur matrix.
//
// # Usage
//
//	op, err := blur.NewOperator(rows, cols, 7, 0.5)
//	blurred, err := op.Forward(img)
//	back, err := op.Adjoint(blurred) // A^T, needed for gradients
//
// For one-shot use:
//
//	blurred, err := blur.Apply(img, 7, 0.5)
//
// # Adjoint
//
// Adjoint multiplies by the complex conjugate of the kernel spectrum, which is
// the exact transpose of Forward under the standard inner product
// sum(x[i]*y[i]). Gradient-based solvers depend on this.
//
// # Caching
//
// Frequency responses are memoized per (rows, cols, diameter, sigma) in a
// process-wide cache. Pass [WithoutCache] to always recompute.
//
// An Operator owns scratch buffers and is not safe for concurrent use;
// create one per goroutine. Operators created from the cache share the
// read-only response only.
package blur
