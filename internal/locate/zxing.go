package locate

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/detector"

	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
)

// ZXing is a pure Go Detector backed by gozxing.
type ZXing struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXing returns a detector that searches harder than the library default.
func NewZXing() *ZXing {
	return &ZXing{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

// Decode returns the payload of the first symbol found in img.
func (z *ZXing) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize: %w", err)
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, z.hints)
	if err != nil {
		return "", err
	}
	return res.GetText(), nil
}

// Detect locates the finder patterns and extrapolates the symbol's outer
// corners from them.
func (z *ZXing) Detect(img image.Image) (Corners, bool, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Corners{}, false, fmt.Errorf("binarize: %w", err)
	}
	bits, err := bmp.GetBlackMatrix()
	if err != nil {
		return Corners{}, false, fmt.Errorf("binarize: %w", err)
	}
	dr, err := detector.NewDetector(bits).Detect(z.hints)
	if err != nil {
		// not found
		return Corners{}, false, nil
	}

	var pts []imgproc.Point
	for _, p := range dr.GetPoints() {
		pts = append(pts, imgproc.Point{X: p.GetX(), Y: p.GetY()})
	}
	dim := dr.GetBits().GetWidth()
	corners, err := outerCorners(pts, dim)
	if err != nil {
		return Corners{}, false, err
	}
	return Corners{Points: corners, Dimension: dim}, true, nil
}

// outerCorners maps module-space corners into the image through the finder
// centres. pts is bottom-left, top-left, top-right finder centre and an
// optional alignment pattern centre.
func outerCorners(pts []imgproc.Point, dim int) ([]imgproc.Point, error) {
	if len(pts) < 3 || dim < 21 {
		return nil, fmt.Errorf("detector returned %d points for dimension %d", len(pts), dim)
	}
	bl, tl, tr := pts[0], pts[1], pts[2]
	d := float64(dim)

	modules := [4]imgproc.Point{{X: 3.5, Y: 3.5}, {X: d - 3.5, Y: 3.5}, {X: 3.5, Y: d - 3.5}}
	seen := [4]imgproc.Point{tl, tr, bl}
	if len(pts) >= 4 {
		modules[3] = imgproc.Point{X: d - 6.5, Y: d - 6.5}
		seen[3] = pts[3]
	} else {
		modules[3] = imgproc.Point{X: d - 3.5, Y: d - 3.5}
		seen[3] = imgproc.Point{X: tr.X + bl.X - tl.X, Y: tr.Y + bl.Y - tl.Y}
	}

	h, err := imgproc.NewHomography(modules, seen)
	if err != nil {
		return nil, err
	}
	out := make([]imgproc.Point, 0, 4)
	for _, m := range []imgproc.Point{{X: 0, Y: 0}, {X: d, Y: 0}, {X: d, Y: d}, {X: 0, Y: d}} {
		x, y := h.Apply(m.X, m.Y)
		out = append(out, imgproc.Point{X: x, Y: y})
	}
	return out, nil
}
