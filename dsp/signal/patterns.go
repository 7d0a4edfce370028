package signal

import (
	"fmt"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Pattern names accepted by Pattern.
const (
	PatternPhantom = "phantom"
	PatternBars    = "bars"
	PatternPoints  = "points"
)

// Patterns lists the available test pattern names.
func Patterns() []string {
	return []string{PatternPhantom, PatternBars, PatternPoints}
}

// Pattern builds a named rows x cols test image with values in [0, 1].
func Pattern(name string, rows, cols int) (*core.Image, error) {
	switch name {
	case PatternPhantom:
		return Phantom(rows, cols)
	case PatternBars:
		return Bars(rows, cols, max(cols/8, 1))
	case PatternPoints:
		return Points(rows, cols, max(min(rows, cols)/4, 1))
	default:
		return nil, fmt.Errorf("signal: unknown pattern %q", name)
	}
}

// Phantom draws a bright square and a mid-gray disk on a dark background.
func Phantom(rows, cols int) (*core.Image, error) {
	im, err := core.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}

	for i := range im.Pix {
		im.Pix[i] = 0.1
	}

	for r := rows / 8; r < rows*3/8; r++ {
		for c := cols / 8; c < cols*3/8; c++ {
			im.Set(r, c, 1)
		}
	}

	cr, cc := float64(rows)*0.65, float64(cols)*0.6
	rad := 0.2 * float64(min(rows, cols))

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dr, dc := float64(r)+0.5-cr, float64(c)+0.5-cc
			if dr*dr+dc*dc <= rad*rad {
				im.Set(r, c, 0.6)
			}
		}
	}

	return im, nil
}

// Bars draws alternating vertical bars of the given width.
func Bars(rows, cols, width int) (*core.Image, error) {
	if width <= 0 {
		return nil, fmt.Errorf("signal: bar width must be > 0: %d", width)
	}

	im, err := core.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if (c/width)%2 == 0 {
				im.Set(r, c, 1)
			}
		}
	}

	return im, nil
}

// Points places unit impulses on a regular grid with the given spacing.
func Points(rows, cols, spacing int) (*core.Image, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("signal: point spacing must be > 0: %d", spacing)
	}

	im, err := core.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}

	for r := spacing / 2; r < rows; r += spacing {
		for c := spacing / 2; c < cols; c += spacing {
			im.Set(r, c, 1)
		}
	}

	return im, nil
}
