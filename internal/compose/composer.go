// Package compose renders protected QR artifacts: a level-H QR symbol whose
// centre carries a token-seeded micro-pattern and twelve orientation dots.
package compose

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/pattern"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
	"github.com/cristianadrielbraun/protectedqr/internal/qrmatrix"
	"github.com/cristianadrielbraun/protectedqr/internal/raster"
)

// Request limits. A larger border or size would let one request allocate an
// arbitrarily large canvas.
const (
	MaxSize   = 4096
	MaxBorder = 16
)

// Options are the per-request generation inputs.
type Options struct {
	Size   int // target side in pixels
	Border int // quiet zone in modules
}

// Composer renders artifacts under one contract.
type Composer struct {
	contract contract.Contract
	log      logrus.FieldLogger
}

// NewComposer returns a Composer bound to c.
func NewComposer(c contract.Contract, log logrus.FieldLogger) *Composer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Composer{contract: c, log: log}
}

// Contract returns the constants this composer renders with.
func (c *Composer) Contract() contract.Contract { return c.contract }

// DefaultOptions returns the contract's default size and border.
func (c *Composer) DefaultOptions() Options {
	return Options{Size: c.contract.DefaultSizePx, Border: c.contract.BorderModules}
}

// Plan validates the inputs, builds the matrix and lays out the overlay
// without drawing anything.
func (c *Composer) Plan(token string, opts Options) (*qrmatrix.Matrix, Layout, error) {
	if token == "" {
		return nil, Layout{}, qrerr.Input("compose", "token is required")
	}
	if opts.Size < 1 || opts.Size > MaxSize {
		return nil, Layout{}, qrerr.Input("compose", "size must be between 1 and %d, got %d", MaxSize, opts.Size)
	}
	if opts.Border < 0 || opts.Border > MaxBorder {
		return nil, Layout{}, qrerr.Input("compose", "border must be between 0 and %d, got %d", MaxBorder, opts.Border)
	}

	m, err := qrmatrix.Build(token, opts.Border)
	if err != nil {
		return nil, Layout{}, err
	}
	if m.Symbol() < c.contract.HostSquareModules {
		return nil, Layout{}, qrerr.Generation("compose",
			fmt.Errorf("%d modules cannot hold a %d-module host square", m.Symbol(), c.contract.HostSquareModules))
	}

	g := NewGeometry(m.Size(), opts.Size, opts.Border)
	if g.ImageSize > MaxSize {
		return nil, Layout{}, qrerr.Input("compose", "image side %d exceeds %d", g.ImageSize, MaxSize)
	}
	return m, NewLayout(c.contract, g), nil
}

// BelowMinimum reports whether a layout's symbol is smaller than the contract's
// smallest reliably decodable version.
func (c *Composer) BelowMinimum(l Layout) bool {
	return l.SymbolModules() < c.contract.MinReadableModules
}

func (c *Composer) warnIfSmall(l Layout) {
	if !c.BelowMinimum(l) {
		return
	}
	c.log.WithFields(logrus.Fields{
		"modules": l.SymbolModules(),
		"minimum": c.contract.MinReadableModules,
	}).Warn("symbol too small for the host square, it may not decode")
}

// Compose renders the artifact as an opaque RGB raster.
func (c *Composer) Compose(token string, opts Options) (*image.RGBA, error) {
	m, l, err := c.Plan(token, opts)
	if err != nil {
		return nil, err
	}
	c.warnIfSmall(l)
	canvas := raster.NewRGBA(l.ImageSize, l.ImageSize)
	c.paint(canvas, token, m, l)

	c.log.WithFields(logrus.Fields{
		"modules":   l.SymbolModules(),
		"module_px": l.ModulePx,
		"size":      l.ImageSize,
		"padding":   l.Padding,
	}).Debug("composed protected qr")
	return canvas.Img, nil
}

// ComposeSVG renders the same artifact as an SVG document on the same pixel grid.
func (c *Composer) ComposeSVG(token string, opts Options) ([]byte, error) {
	m, l, err := c.Plan(token, opts)
	if err != nil {
		return nil, err
	}
	c.warnIfSmall(l)
	doc := raster.NewSVG(l.ImageSize, l.ImageSize)
	c.paint(doc, token, m, l)
	return doc.Bytes(), nil
}

func (c *Composer) paint(p raster.Painter, token string, m *qrmatrix.Matrix, l Layout) {
	mp := l.ModulePx

	// Modules are painted one run per row to keep SVG output compact.
	for r := 0; r < m.Size(); r++ {
		for col := 0; col < m.Size(); {
			if !m.Get(r, col) {
				col++
				continue
			}
			start := col
			for col < m.Size() && m.Get(r, col) {
				col++
			}
			o := l.ModuleOrigin(start, r)
			p.Fill(image.Rect(o.X, o.Y, o.X+(col-start)*mp, o.Y+mp), raster.Black)
		}
	}

	p.Fill(l.HostRect, raster.White)

	pattern.Draw(raster.Offset{P: p, D: l.PatternRect.Min}, pattern.Digest(token), l.PatternRect.Dx(), l.PatternModules)

	for _, d := range l.Dots {
		p.Fill(d, raster.Black)
	}
	p.Fill(l.Hole, raster.White)
}
