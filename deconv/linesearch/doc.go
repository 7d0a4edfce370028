// Package linesearch implements Armijo backtracking along the negative
// gradient.
//
// Starting from InitialStep the trial step α is multiplied by Shrink until
//
//	f(x - α·g) ≤ f(x) - C1·α·‖g‖²
//
// holds. The number of shrinks is bounded by MaxHalvings; exceeding it is
// reported as ErrDivergence instead of looping forever.
package linesearch
