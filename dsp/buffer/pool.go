package buffer

import (
	"sync"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Pool provides sync.Pool-based reuse of *core.Image values. Images of any
// shape share the pool; Get resizes the pixel slice as needed.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &core.Image{}
			},
		},
	}
}

// Get returns a zeroed rows x cols image. Callers should hand it back via Put
// once nothing references it.
func (p *Pool) Get(rows, cols int) *core.Image {
	im := p.pool.Get().(*core.Image)
	im.Rows, im.Cols = rows, cols
	im.Pix = core.EnsureLen(im.Pix, rows*cols)
	core.Zero(im.Pix)

	return im
}

// Put returns an image to the pool. The caller must not use it afterwards.
func (p *Pool) Put(im *core.Image) {
	if im == nil {
		return
	}
	p.pool.Put(im)
}
