package blur

import (
	"math"
	"math/cmplx"
	"testing"
)

// naiveDFT2 is the O(n^2) reference 2D DFT.
func naiveDFT2(data []complex128, rows, cols int) []complex128 {
	out := make([]complex128, len(data))
	for u := 0; u < rows; u++ {
		for v := 0; v < cols; v++ {
			var sum complex128
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					phase := -2 * math.Pi * (float64(u*r)/float64(rows) + float64(v*c)/float64(cols))
					sum += data[r*cols+c] * cmplx.Rect(1, phase)
				}
			}
			out[u*cols+v] = sum
		}
	}
	return out
}

func TestPlan2DMatchesNaiveDFT(t *testing.T) {
	shapes := []struct{ rows, cols int }{
		{1, 1},
		{1, 8},
		{4, 4},
		{8, 4},
		{3, 5},
		{6, 10},
	}

	for _, s := range shapes {
		p, err := newPlan2D(s.rows, s.cols)
		if err != nil {
			t.Fatalf("newPlan2D(%d,%d): %v", s.rows, s.cols, err)
		}

		data := make([]complex128, s.rows*s.cols)
		for i := range data {
			data[i] = complex(math.Sin(float64(i)*0.7)+0.1*float64(i%3), math.Cos(float64(i)*0.3))
		}

		want := naiveDFT2(data, s.rows, s.cols)
		got := append([]complex128(nil), data...)

		if err := p.forward(got); err != nil {
			t.Fatalf("forward: %v", err)
		}

		for i := range want {
			if cmplx.Abs(got[i]-want[i]) > 1e-9 {
				t.Fatalf("%dx%d: bin %d = %v, want %v", s.rows, s.cols, i, got[i], want[i])
			}
		}

		if err := p.inverse(got); err != nil {
			t.Fatalf("inverse: %v", err)
		}

		for i := range data {
			if cmplx.Abs(got[i]-data[i]) > 1e-12 {
				t.Fatalf("%dx%d: round trip [%d] = %v, want %v", s.rows, s.cols, i, got[i], data[i])
			}
		}
	}
}

func TestPlan2DRejectsWrongLength(t *testing.T) {
	p, err := newPlan2D(4, 4)
	if err != nil {
		t.Fatalf("newPlan2D: %v", err)
	}

	if err := p.forward(make([]complex128, 15)); err == nil {
		t.Fatal("expected error for short buffer")
	}

	if _, err := newPlan2D(0, 4); err == nil {
		t.Fatal("expected error for empty shape")
	}
}

func TestGonumTransformRoundTrip(t *testing.T) {
	const n = 12
	tr := newGonumTransform(n)

	data := make([]complex128, n)
	for i := range data {
		data[i] = complex(float64(i), -float64(i%4))
	}
	orig := append([]complex128(nil), data...)

	_ = tr.forward(data)
	_ = tr.inverse(data)

	for i := range data {
		if cmplx.Abs(data[i]-orig[i]) > 1e-12 {
			t.Fatalf("[%d] = %v, want %v", i, data[i], orig[i])
		}
	}
}
