package compose

import (
	"image"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/raster"
)

// Geometry is the integer pixel grid of a protected QR. It is never stored:
// composer and verifier both recompute it from (modules, size, border).
// Modules is the matrix side with its quiet zone, so the canvas spans
// Modules+2*Border cells around a symbol of Modules-2*Border.
type Geometry struct {
	Modules      int
	Border       int
	TotalModules int
	ModulePx     int
	ImageSize    int
	Padding      int
}

// NewGeometry floor-divides size across modules+2*border and centres the grid
// when it falls short of size.
func NewGeometry(modules, size, border int) Geometry {
	total := modules + 2*border
	modulePx := max(1, size/total)
	exact := modulePx * total

	padding := 0
	if exact < size {
		padding = (size - exact) / 2
		exact = size
	}
	return Geometry{
		Modules:      modules,
		Border:       border,
		TotalModules: total,
		ModulePx:     modulePx,
		ImageSize:    exact,
		Padding:      padding,
	}
}

// ModuleOrigin is the top-left pixel of matrix module (col, row).
func (g Geometry) ModuleOrigin(col, row int) image.Point {
	return image.Pt(
		g.Padding+(col+g.Border)*g.ModulePx,
		g.Padding+(row+g.Border)*g.ModulePx,
	)
}

// SymbolModules is the side of the QR symbol without any quiet zone.
func (g Geometry) SymbolModules() int { return g.Modules - 2*g.Border }

// SymbolRect is the pixel area of the QR symbol, quiet zone excluded.
func (g Geometry) SymbolRect() image.Rectangle {
	o := g.ModuleOrigin(g.Border, g.Border)
	side := g.SymbolModules() * g.ModulePx
	return image.Rectangle{Min: o, Max: o.Add(image.Pt(side, side))}
}

// Layout places the host square, micro-pattern and marker dots for one geometry.
type Layout struct {
	Geometry

	HostRect       image.Rectangle // cleared to white
	PatternRect    image.Rectangle // where the micro-pattern is pasted
	PatternModules int
	Dots           []image.Rectangle
	Hole           image.Rectangle // cut out of Dots[HollowDotIndex]
}

// NewLayout computes every overlay position from geometry alone; the token
// never influences where anything is drawn.
func NewLayout(c contract.Contract, g Geometry) Layout {
	mp := g.ModulePx
	center := g.Modules / 2
	half := c.HostSquareModules / 2

	hostStart := g.ModuleOrigin(center-half, center-half)
	sx, sy := hostStart.X, hostStart.Y
	side := c.HostSquareModules * mp

	patternPx := int(c.PatternSpanModules * float64(mp))
	pc := g.ModuleOrigin(center, center).Add(image.Pt(mp/2, mp/2))
	paste := pc.Sub(image.Pt(patternPx/2, patternPx/2))

	l := Layout{
		Geometry:       g,
		HostRect:       raster.Inclusive(sx, sy, sx+side, sy+side),
		PatternRect:    image.Rectangle{Min: paste, Max: paste.Add(image.Pt(patternPx, patternPx))},
		PatternModules: c.PatternGridModules,
	}

	dotPx := int(c.DotSizeModules * float64(mp))
	step := c.DotStepModules()
	along := func(i int) int {
		return int((c.HostPaddingModules + float64(i)*step) * float64(mp))
	}
	near := int(c.HostPaddingModules * float64(mp))
	far := side - int((c.HostPaddingModules+c.DotSizeModules)*float64(mp))

	var origins []image.Point
	for i := 0; i < 4; i++ { // top, left to right
		origins = append(origins, image.Pt(sx+along(i), sy+near))
	}
	for i := 1; i < 3; i++ { // right, downwards
		origins = append(origins, image.Pt(sx+far, sy+along(i)))
	}
	for i := 3; i >= 0; i-- { // bottom, right to left
		origins = append(origins, image.Pt(sx+along(i), sy+far))
	}
	for i := 2; i > 0; i-- { // left, upwards
		origins = append(origins, image.Pt(sx+near, sy+along(i)))
	}

	for _, o := range origins {
		l.Dots = append(l.Dots, raster.Inclusive(o.X, o.Y, o.X+dotPx, o.Y+dotPx))
	}

	holePx := int(c.HoleSizeModules * float64(mp))
	off := (dotPx - holePx) / 2
	h := origins[c.HollowDotIndex].Add(image.Pt(off, off))
	l.Hole = raster.Inclusive(h.X, h.Y, h.X+holePx, h.Y+holePx)
	return l
}
