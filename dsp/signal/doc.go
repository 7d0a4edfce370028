// Package signal synthesizes inputs for deblurring experiments: seeded
// Gaussian noise scaled to a relative level and simple test patterns. It
// also estimates the noise level of an observation when the true noise norm
// is not known.
package signal
