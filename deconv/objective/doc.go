// Package objective provides the least-squares objective family used for
// deblurring: plain, Tikhonov (L2), lasso (L1) and elastic net (L2 + L1).
//
// Every objective shares the residual r(x) = A x - b:
//
//	Plain            ½‖r‖²                      Aᵀr
//	Tikhonov(λ)      ½‖r‖² + ½λ‖x‖²             Aᵀr + λx
//	Lasso(λ)         ½‖r‖² + λ‖x‖₁              Aᵀr + λ·sign(x)
//	ElasticNet(λ,μ)  ½‖r‖² + ½λ‖x‖² + μ‖x‖₁     Aᵀr + λx + μ·sign(x)
//
// The L1 term is differentiated with the elementwise sign function
// (sign(0) = 0). This is a smooth surrogate, not a proximal step.
package objective
