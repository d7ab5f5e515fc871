package imgproc

import (
	"image"
	"math"
)

// Mapping takes an output pixel centre to a source position.
type Mapping func(x, y float64) (float64, float64)

// Warp builds a size x size image by sampling src through m with nearest
// neighbour lookup. Samples that land outside src are white.
func Warp(src *image.Gray, size int, m Mapping) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, size, size))
	b := src.Bounds()
	for y := 0; y < size; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+size]
		for x := range row {
			sx, sy := m(float64(x)+0.5, float64(y)+0.5)
			ix, iy := int(math.Floor(sx)), int(math.Floor(sy))
			if math.IsNaN(sx) || math.IsNaN(sy) || !image.Pt(ix, iy).In(b) {
				row[x] = 255
				continue
			}
			row[x] = src.Pix[src.PixOffset(ix, iy)]
		}
	}
	return out
}

// Rectify maps the grid [-border, units+border]^2, whose inner [0, units]^2
// square corresponds to q, onto a size x size image.
func Rectify(src *image.Gray, q Quad, units, border float64, size int) (*image.Gray, error) {
	h, err := SquareToQuad(q)
	if err != nil {
		return nil, err
	}
	ppu := float64(size) / (units + 2*border)
	return Warp(src, size, func(x, y float64) (float64, float64) {
		u := (x/ppu - border) / units
		v := (y/ppu - border) / units
		return h.Apply(u, v)
	}), nil
}
