// Package descent minimizes a deblurring objective by gradient descent with
// Armijo backtracking.
//
// The solver starts Running from an initial guess and stops Converged once
// ‖∇f(x)‖ ≤ Tolerance, or MaxIterReached after MaxIterations updates.
// MaxIterReached is not an error: Solve returns the iterate and Result.Err
// reports ErrNonConvergence for callers that want to treat it as one.
//
// # Return policies
//
// Naive returns the last iterate. Truncated returns the best-seen iterate for
// semiconvergent problems: whenever ‖x_true - x_k‖ is strictly smaller than
// the error of the previous iterate, x_k becomes the candidate. The first
// iterate has no predecessor and is never a candidate, so a run whose error
// only grows returns x0 with BestIndex -1.
//
// Truncated needs the ground truth image (WithGroundTruth). That makes it an
// evaluation tool for synthetic experiments, not something usable on real
// observations where x_true is unknown.
package descent
