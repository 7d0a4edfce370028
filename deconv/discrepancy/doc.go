// Package discrepancy selects the regularization strength λ with the
// discrepancy principle: the largest λ on a geometric grid whose solution
// still fits the observation within the noise energy,
//
//	‖A x_λ - b‖² ≤ ‖η‖² < ‖A x_{λ·r} - b‖².
//
// The search starts at InitialStrength and multiplies by Ratio while the
// residual stays within the noise energy. If the initial strength already
// exceeds it, the search divides by Ratio until the residual fits, so the
// returned λ always satisfies the bracket above. Each trial runs the inner
// gradient descent solver; the number of trials is capped by MaxSteps.
//
// The noise norm ‖η‖ is an input. It is not estimated from b, so the
// selector is only usable where the noise level is known, as in synthetic
// experiments. The search assumes the residual grows monotonically with λ.
package discrepancy
