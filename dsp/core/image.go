package core

import (
	"errors"
	"fmt"
)

// Image errors.
var (
	ErrEmptyImage    = errors.New("core: empty image")
	ErrShapeMismatch = errors.New("core: image shape mismatch")
)

// Image is a real-valued rows x cols grid stored row-major in Pix.
//
// Pix doubles as the flat vector view used for norms and inner products,
// so index (r, c) lives at Pix[r*Cols+c].
type Image struct {
	Rows int
	Cols int
	Pix  []float64
}

// NewImage returns a zero-filled image of the given shape.
func NewImage(rows, cols int) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, rows, cols)
	}

	return &Image{Rows: rows, Cols: cols, Pix: make([]float64, rows*cols)}, nil
}

// NewImageFrom wraps pix as a rows x cols image without copying.
func NewImageFrom(rows, cols int, pix []float64) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, rows, cols)
	}

	if len(pix) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d needs %d values, got %d",
			ErrShapeMismatch, rows, cols, rows*cols, len(pix))
	}

	return &Image{Rows: rows, Cols: cols, Pix: pix}, nil
}

// NewImageFromRows copies a slice of equal-length rows into a new image.
func NewImageFromRows(rows [][]float64) (*Image, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyImage
	}

	cols := len(rows[0])
	im := &Image{Rows: len(rows), Cols: cols, Pix: make([]float64, len(rows)*cols)}

	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, r, len(row), cols)
		}

		copy(im.Pix[r*cols:], row)
	}

	return im, nil
}

// Len returns the number of pixels.
func (im *Image) Len() int {
	return im.Rows * im.Cols
}

// At returns the value at row r, column c.
func (im *Image) At(r, c int) float64 {
	return im.Pix[r*im.Cols+c]
}

// Set stores v at row r, column c.
func (im *Image) Set(r, c int, v float64) {
	im.Pix[r*im.Cols+c] = v
}

// Row returns row r as a slice aliasing Pix.
func (im *Image) Row(r int) []float64 {
	return im.Pix[r*im.Cols : (r+1)*im.Cols]
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	pix := make([]float64, len(im.Pix))
	copy(pix, im.Pix)

	return &Image{Rows: im.Rows, Cols: im.Cols, Pix: pix}
}

// ZerosLike returns a zero-filled image with the same shape as im.
func (im *Image) ZerosLike() *Image {
	return &Image{Rows: im.Rows, Cols: im.Cols, Pix: make([]float64, len(im.Pix))}
}

// SameShape reports whether im and other have identical dimensions.
func (im *Image) SameShape(other *Image) bool {
	return other != nil && im.Rows == other.Rows && im.Cols == other.Cols
}

// CheckShape returns ErrShapeMismatch unless every image matches want.
func CheckShape(want *Image, others ...*Image) error {
	if want == nil || len(want.Pix) == 0 {
		return ErrEmptyImage
	}

	for _, o := range others {
		if !want.SameShape(o) {
			if o == nil {
				return fmt.Errorf("%w: want %dx%d, got nil", ErrShapeMismatch, want.Rows, want.Cols)
			}

			return fmt.Errorf("%w: want %dx%d, got %dx%d",
				ErrShapeMismatch, want.Rows, want.Cols, o.Rows, o.Cols)
		}
	}

	return nil
}
