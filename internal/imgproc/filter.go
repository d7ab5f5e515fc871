package imgproc

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Gray converts img to 8-bit luminance. A *image.Gray input is copied.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
		draw.Draw(out, out.Bounds(), g, g.Bounds().Min, draw.Src)
		return out
	}
	return fromNRGBA(imaging.Grayscale(img))
}

// fromNRGBA keeps the red channel of an image whose channels are equal.
func fromNRGBA(n *image.NRGBA) *image.Gray {
	b := n.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := n.Pix[y*n.Stride : y*n.Stride+4*b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return out
}

// Blur applies a Gaussian blur of the given sigma.
func Blur(g *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return Gray(g)
	}
	return fromNRGBA(imaging.Blur(g, sigma))
}

// AdaptiveThreshold marks a pixel white when it is brighter than its Gaussian
// neighbourhood mean minus c, and black otherwise.
func AdaptiveThreshold(g *image.Gray, sigma float64, c int) *image.Gray {
	mean := Blur(g, sigma)
	out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
	src := Gray(g)
	for i, v := range src.Pix {
		if int(v) > int(mean.Pix[i])-c {
			out.Pix[i] = 255
		}
	}
	return out
}

// Scale resizes img by f. Enlarging uses Catmull-Rom, shrinking a box filter.
func Scale(img image.Image, f float64) image.Image {
	if f == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*f)))
	h := max(1, int(math.Round(float64(b.Dy())*f)))
	filter := imaging.Box
	if f > 1 {
		filter = imaging.CatmullRom
	}
	return imaging.Resize(img, w, h, filter)
}

// ResizeNearest resamples g to w x h without introducing intermediate grey levels.
func ResizeNearest(g *image.Gray, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), g, g.Bounds(), xdraw.Src, nil)
	return out
}

// Crop copies r out of g into a new image anchored at the origin. Parts of r
// outside g are white.
func Crop(g *image.Gray, r image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	src := r.Intersect(g.Bounds())
	if src.Empty() {
		return out
	}
	draw.Draw(out, src.Sub(r.Min), g, src.Min, draw.Src)
	return out
}

// RotateCW rotates g clockwise by the given number of quarter turns.
func RotateCW(g *image.Gray, turns int) *image.Gray {
	switch ((turns % 4) + 4) % 4 {
	case 1:
		return fromNRGBA(imaging.Rotate270(g))
	case 2:
		return fromNRGBA(imaging.Rotate180(g))
	case 3:
		return fromNRGBA(imaging.Rotate90(g))
	}
	return Gray(g)
}
