package extract

import (
	"image"
	"math"

	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

// WarpGrid rectifies the symbol plus its quiet zone onto a grid of whole
// pixels per module, restores the orientation from the hollow marker dot and
// crops the pattern span around the grid centre. The centred crop comes
// first, followed by crops shifted up to GridJitterPx to absorb sub-pixel
// corner error.
//
// in.Modules is the matrix side the composer laid out, quiet zone included,
// so the detected corners enclose in.Modules-2*border modules and the
// rectified grid spans in.Modules+2*border.
func WarpGrid(c contract.Contract, in Input) ([]*image.Gray, error) {
	b := c.BorderModules
	symbol := in.Modules - 2*b
	if len(in.Corners) != 4 || in.Modules <= 0 || symbol <= 0 {
		return nil, errNotApplicable
	}
	if in.Dimension > 0 && in.Dimension != symbol {
		return nil, qrerr.Mismatch("extract.WarpGrid", "detector reports %d modules, token encodes %d", in.Dimension, symbol)
	}
	q, err := imgproc.OrderCorners(in.Corners)
	if err != nil {
		return nil, err
	}

	total := in.Modules + 2*b
	ppm := max(int(math.Round(q.MaxEdge()/float64(symbol))), ceilDiv(c.ExpectedCropPx+c.RectifySlackPx, total))
	size := ppm * total

	rect, err := imgproc.Rectify(in.Image, q, float64(symbol), float64(2*b), size)
	if err != nil {
		return nil, err
	}
	if turns := orientation(c, rect, in.Modules, ppm); turns != 0 {
		rect = imgproc.RotateCW(rect, turns)
	}

	crop := max(int(c.PatternSpanModules*float64(ppm)), c.MinCropPx)
	centre := (float64(b+in.Modules/2) + 0.5) * float64(ppm)
	x0 := int(math.Floor(centre - float64(crop)/2 + 1e-6))
	r := image.Rect(x0, x0, x0+crop, x0+crop)
	if r.Empty() || !r.In(rect.Bounds()) {
		// the span does not fit the grid; take the middle of the rectified image
		crop = min(crop, size)
		x0 = (size - crop) / 2
		return []*image.Gray{imgproc.Crop(rect, image.Rect(x0, x0, x0+crop, x0+crop))}, nil
	}

	crops := []*image.Gray{imgproc.Crop(rect, r)}
	j := c.GridJitterPx
	for dy := -j; dy <= j; dy++ {
		for dx := -j; dx <= j; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			crops = append(crops, imgproc.Crop(rect, r.Add(image.Pt(dx, dy))))
		}
	}
	return crops, nil
}

// Warp rectifies the symbol alone and crops a square proportional to the
// expected crop at the reference resolution.
func Warp(c contract.Contract, in Input) ([]*image.Gray, error) {
	if len(in.Corners) != 4 {
		return nil, errNotApplicable
	}
	q, err := imgproc.OrderCorners(in.Corners)
	if err != nil {
		return nil, err
	}
	size := max(int(q.MaxEdge()), c.ExpectedCropPx+c.RectifySlackPx)
	rect, err := imgproc.Rectify(in.Image, q, 1, 0, size)
	if err != nil {
		return nil, err
	}

	crop := max(c.ExpectedCropPx*size/c.ReferenceRectifiedPx, c.MinCropPx)
	crop = min(crop, size)
	x0 := (size - crop) / 2
	return []*image.Gray{imgproc.Crop(rect, image.Rect(x0, x0, x0+crop, x0+crop))}, nil
}

// Axis crops the expected size around the centre of the detected bounding box,
// or of the whole image, and resizes with nearest neighbour if clamping
// shrank the crop.
func Axis(c contract.Contract, in Input) ([]*image.Gray, error) {
	region := in.Image.Bounds()
	if len(in.Corners) == 4 {
		var q imgproc.Quad
		copy(q[:], in.Corners)
		pad := c.BoundsPaddingPx
		box := q.Bounds().Inset(-pad).Intersect(region)
		if !box.Empty() {
			region = box
		}
	}

	target := c.ExpectedCropPx
	half := target / 2
	cx := region.Min.X + region.Dx()/2
	cy := region.Min.Y + region.Dy()/2
	r := image.Rect(cx-half, cy-half, cx+half, cy+half).Intersect(region)
	if r.Empty() {
		// nothing to sample; a blank crop still gets a verdict
		return []*image.Gray{imgproc.Crop(in.Image, image.Rect(0, 0, target, target).Add(region.Max))}, nil
	}

	crop := imgproc.Crop(in.Image, r)
	if crop.Bounds().Dx() != target || crop.Bounds().Dy() != target {
		crop = imgproc.ResizeNearest(crop, target, target)
	}
	return []*image.Gray{crop}, nil
}

// Marker dot centres relative to the host square's top-left, in modules,
// ordered top-left, top-right, bottom-right, bottom-left.
func cornerDots(c contract.Contract) [4][2]float64 {
	near := c.HostPaddingModules + c.DotSizeModules/2
	far := float64(c.HostSquareModules) - c.HostPaddingModules - c.DotSizeModules/2
	return [4][2]float64{{near, near}, {far, near}, {far, far}, {near, far}}
}

// clockwise quarter turns that bring the hollow dot from each corner to the
// bottom-right
var turnsFrom = [4]int{2, 1, 0, 3}

// orientation inspects the four corner marker dots of a rectified grid whose
// matrix side, quiet zone included, is modules. If
// exactly one is light, it returns the clockwise quarter turns that move it to
// the bottom-right. Otherwise the orientation is unknown and it returns 0.
func orientation(c contract.Contract, rect *image.Gray, modules, ppm int) int {
	host := float64(c.BorderModules + modules/2 - c.HostSquareModules/2)
	r := max(1, ppm/5)

	light, at := 0, -1
	for i, d := range cornerDots(c) {
		x := int((host + d[0]) * float64(ppm))
		y := int((host + d[1]) * float64(ppm))
		if mean(rect, image.Rect(x-r/2, y-r/2, x-r/2+r, y-r/2+r)) >= float64(c.BinarizeThreshold) {
			light++
			at = i
		}
	}
	if light != 1 {
		return 0
	}
	return turnsFrom[at]
}

func mean(g *image.Gray, r image.Rectangle) float64 {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return 255
	}
	sum := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += int(g.Pix[g.PixOffset(x, y)])
		}
	}
	return float64(sum) / float64(r.Dx()*r.Dy())
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
