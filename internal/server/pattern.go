package server

import "github.com/bft-labs/rdstream/internal/domain"

// Pattern generates a scrolling RGB gradient, one frame per call.
type Pattern struct {
	dims  domain.Dimensions
	frame uint32
}

// NewPattern creates a pattern for d.
func NewPattern(d domain.Dimensions) *Pattern {
	return &Pattern{dims: d}
}

// AppendNext appends the next frame to dst and returns the extended slice.
func (p *Pattern) AppendNext(dst []byte) []byte {
	w, h := p.dims.Width, p.dims.Height
	shift := p.frame
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			dst = append(dst,
				byte((x+shift)*255/max(w, 1)),
				byte(y*255/max(h, 1)),
				byte(shift),
			)
		}
	}
	p.frame++
	return dst
}
