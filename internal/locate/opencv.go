//go:build opencv

package locate

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
)

// OpenCV is a Detector backed by OpenCV's QRCodeDetector. It needs the native
// library and is only built with -tags opencv.
type OpenCV struct {
	det gocv.QRCodeDetector
}

func init() {
	backends["opencv"] = func() (Detector, func() error) {
		o := NewOpenCV()
		return o, o.Close
	}
}

// NewOpenCV allocates the native detector. Call Close when done.
func NewOpenCV() *OpenCV {
	return &OpenCV{det: gocv.NewQRCodeDetector()}
}

// Close releases the native detector.
func (o *OpenCV) Close() error {
	return o.det.Close()
}

func (o *OpenCV) Decode(img image.Image) (string, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return "", fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	return o.det.DetectAndDecode(mat, &points, &straight), nil
}

func (o *OpenCV) Detect(img image.Image) (Corners, bool, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Corners{}, false, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	points := gocv.NewMat()
	defer points.Close()
	if !o.det.Detect(mat, &points) || points.Empty() {
		return Corners{}, false, nil
	}

	data, err := points.DataPtrFloat32()
	if err != nil {
		return Corners{}, false, fmt.Errorf("read corners: %w", err)
	}
	if len(data) < 8 {
		return Corners{}, false, nil
	}
	c := Corners{}
	for i := 0; i < 4; i++ {
		c.Points = append(c.Points, imgproc.Point{X: float64(data[2*i]), Y: float64(data[2*i+1])})
	}
	return c, true, nil
}
