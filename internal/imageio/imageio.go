// Package imageio converts between image files and grayscale core.Image
// grids with intensities in [0, 1].
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// ErrUnsupportedFormat is returned by Save for unknown file extensions.
var ErrUnsupportedFormat = errors.New("imageio: unsupported output format")

const jpegQuality = 95

// Load reads an image file and converts it to grayscale.
func Load(path string) (*core.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: %w", err)
	}

	return FromImage(img), nil
}

// LoadFit reads an image file and, if either side exceeds maxSide, scales it
// down preserving the aspect ratio. maxSide <= 0 disables scaling.
func LoadFit(path string, maxSide int) (*core.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: %w", err)
	}

	return FromImage(Fit(img, maxSide)), nil
}

// Fit scales img down so that neither side exceeds maxSide.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	if w >= h {
		h = max(h*maxSide/w, 1)
		w = maxSide
	} else {
		w = max(w*maxSide/h, 1)
		h = maxSide
	}

	return transform.Resize(img, w, h, transform.Linear)
}

// FromImage converts img to luminance values in [0, 1].
func FromImage(img image.Image) *core.Image {
	b := img.Bounds()
	out := &core.Image{Rows: b.Dy(), Cols: b.Dx(), Pix: make([]float64, b.Dx()*b.Dy())}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			out.Set(y-b.Min.Y, x-b.Min.X, float64(g.Y)/0xffff)
		}
	}

	return out
}

// ToGray renders im as an 8-bit grayscale image, clamping to [0, 1].
func ToGray(im *core.Image) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, im.Cols, im.Rows))

	for r := 0; r < im.Rows; r++ {
		for c := 0; c < im.Cols; c++ {
			v := core.Clamp(im.At(r, c), 0, 1)
			out.SetGray(c, r, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}

	return out
}

// Save writes im as PNG, JPEG or BMP depending on the file extension.
func Save(path string, im *core.Image) error {
	var enc imgio.Encoder

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		enc = imgio.PNGEncoder()
	case ".jpg", ".jpeg":
		enc = imgio.JPEGEncoder(jpegQuality)
	case ".bmp":
		enc = imgio.BMPEncoder()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if err := imgio.Save(path, ToGray(im), enc); err != nil {
		return fmt.Errorf("imageio: %w", err)
	}

	return nil
}
