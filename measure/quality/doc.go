// Package quality reports reconstruction quality for deblurring runs:
// relative error, the noise-referenced PSNR used by the reference
// experiments, conventional peak PSNR and SNR.
package quality
