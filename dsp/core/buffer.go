package core

// EnsureLen returns a slice of length n, reusing buf capacity if possible.
// Reused elements keep their old values.
func EnsureLen[T float64 | complex128](buf []T, n int) []T {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]T, n)
}

// Zero sets all values in buf to 0.
func Zero[T float64 | complex128](buf []T) {
	for i := range buf {
		buf[i] = 0
	}
}

// RealToComplex writes src into dst as complex values with zero imaginary part.
// dst must be at least as long as src.
func RealToComplex(dst []complex128, src []float64) {
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
}

// RealPart writes the real components of src into dst.
func RealPart(dst []float64, src []complex128) {
	for i := range dst {
		dst[i] = real(src[i])
	}
}
