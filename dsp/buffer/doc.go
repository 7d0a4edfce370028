// Package buffer recycles image-sized scratch storage for iterative solvers.
//
// Each gradient step produces a fresh trial iterate while the previous one
// becomes garbage. A Pool hands those images back out so that a long solve
// allocates a handful of pixel slices instead of one per line search.
package buffer
