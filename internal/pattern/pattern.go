// Package pattern synthesizes the copy-sensitive micro-pattern stamped in the
// centre of a protected QR. The output depends only on (digest, size, modules).
package pattern

import (
	"image"

	"github.com/cristianadrielbraun/protectedqr/internal/raster"
)

// Layout is the pixel placement of the pattern grid inside a size x size square.
type Layout struct {
	Size     int // square side in pixels
	Modules  int // grid side after clamping
	ModulePx int
	Margin   int // offset of the grid from the square's top-left corner
	FinderM  int // finder mark side in modules
}

// NewLayout fits a modules x modules grid into size pixels, keeping a quiet
// margin of size/48 on every side.
func NewLayout(size, modules int) Layout {
	quiet := max(0, size/48)
	inner := max(1, size-2*quiet)

	actual := min(modules, inner)
	if actual < 1 {
		actual = 1
	}
	modulePx := max(1, inner/actual)
	used := modulePx * actual

	return Layout{
		Size:     size,
		Modules:  actual,
		ModulePx: modulePx,
		Margin:   quiet + max(0, (inner-used)/2),
		FinderM:  max(1, actual/7),
	}
}

// Draw paints the pattern for digest into p, covering [0,size)x[0,size):
// a white background, one black square per set bit, then three finder marks.
func Draw(p raster.Painter, digest string, size, modules int) {
	if size < 1 {
		return
	}
	l := NewLayout(size, modules)
	p.Fill(image.Rect(0, 0, size, size), raster.White)

	bits := NewBitStream(digest)
	for r := 0; r < l.Modules; r++ {
		for c := 0; c < l.Modules; c++ {
			if !bits.Next() {
				continue
			}
			bx := l.Margin + c*l.ModulePx
			by := l.Margin + r*l.ModulePx
			p.Fill(image.Rect(bx, by, bx+l.ModulePx, by+l.ModulePx), raster.Black)
		}
	}

	drawFinder(p, l, 0, 0)
	drawFinder(p, l, 0, l.Modules-l.FinderM)
	drawFinder(p, l, l.Modules-l.FinderM, 0)
}

func drawFinder(p raster.Painter, l Layout, topRow, leftCol int) {
	fx0 := l.Margin + leftCol*l.ModulePx
	fy0 := l.Margin + topRow*l.ModulePx
	fw := l.FinderM * l.ModulePx
	p.Fill(image.Rect(fx0, fy0, fx0+fw, fy0+fw), raster.Black)

	pad := max(1, l.ModulePx/2)
	if fw-2*pad <= 0 {
		return
	}
	p.Fill(image.Rect(fx0+pad, fy0+pad, fx0+fw-pad, fy0+fw-pad), raster.White)

	pad2 := pad * 2
	if fw-2*pad2 <= 0 {
		return
	}
	p.Fill(image.Rect(fx0+pad2, fy0+pad2, fx0+fw-pad2, fy0+fw-pad2), raster.Black)
}

// Synthesize renders the pattern as a strictly binary grayscale image.
func Synthesize(digest string, size, modules int) *image.Gray {
	if size < 1 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	g := raster.NewGray(size, size)
	Draw(g, digest, size, modules)
	return g.Img
}

// ForToken is Synthesize seeded with Digest(token).
func ForToken(token string, size, modules int) *image.Gray {
	return Synthesize(Digest(token), size, modules)
}
