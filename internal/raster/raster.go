// Package raster paints axis-aligned black and white rectangles onto either a
// pixel buffer or an SVG document. Every protected QR element is a filled
// rectangle on an integer pixel grid, so both outputs carry identical geometry.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
)

// Ink is the only two colours the artifact uses.
type Ink bool

const (
	White Ink = false
	Black Ink = true
)

// Painter fills rectangles. Rectangles are half-open like image.Rectangle.
type Painter interface {
	Fill(r image.Rectangle, ink Ink)
}

// Inclusive converts corner coordinates that include both ends into a half-open
// rectangle, e.g. Inclusive(0, 0, 9, 9) covers 10x10 pixels.
func Inclusive(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1+1, y1+1)
}

func (i Ink) gray() color.Gray {
	if i == Black {
		return color.Gray{Y: 0}
	}
	return color.Gray{Y: 255}
}

// Gray paints onto an 8-bit grayscale image.
type Gray struct {
	Img *image.Gray
}

// NewGray returns a white w x h canvas.
func NewGray(w, h int) *Gray {
	g := &Gray{Img: image.NewGray(image.Rect(0, 0, w, h))}
	g.Fill(g.Img.Bounds(), White)
	return g
}

func (g *Gray) Fill(r image.Rectangle, ink Ink) {
	draw.Draw(g.Img, r, &image.Uniform{C: ink.gray()}, image.Point{}, draw.Src)
}

// RGBA paints onto an opaque RGBA image.
type RGBA struct {
	Img *image.RGBA
}

// NewRGBA returns a white w x h canvas.
func NewRGBA(w, h int) *RGBA {
	c := &RGBA{Img: image.NewRGBA(image.Rect(0, 0, w, h))}
	c.Fill(c.Img.Bounds(), White)
	return c
}

func (c *RGBA) Fill(r image.Rectangle, ink Ink) {
	col := color.RGBA{255, 255, 255, 255}
	if ink == Black {
		col = color.RGBA{0, 0, 0, 255}
	}
	draw.Draw(c.Img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

// SVG records rectangles as <rect> elements. Rectangles are clipped to the
// canvas the same way draw.Draw clips them, so rasterising the document at
// 1:1 reproduces the pixel canvas.
type SVG struct {
	bounds image.Rectangle
	b      strings.Builder
}

// NewSVG starts a white w x h document.
func NewSVG(w, h int) *SVG {
	s := &SVG{bounds: image.Rect(0, 0, w, h)}
	s.b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	s.b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`,
		w, h, w, h))
	s.Fill(s.bounds, White)
	return s
}

func (s *SVG) Fill(r image.Rectangle, ink Ink) {
	r = r.Intersect(s.bounds)
	if r.Empty() {
		return
	}
	fill := "#fff"
	if ink == Black {
		fill = "#000"
	}
	s.b.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
		r.Min.X, r.Min.Y, r.Dx(), r.Dy(), fill))
}

// Bytes closes the document and returns it.
func (s *SVG) Bytes() []byte {
	return []byte(s.b.String() + `</svg>`)
}

// Offset shifts every rectangle painted through it by d.
type Offset struct {
	P Painter
	D image.Point
}

func (o Offset) Fill(r image.Rectangle, ink Ink) {
	o.P.Fill(r.Add(o.D), ink)
}
