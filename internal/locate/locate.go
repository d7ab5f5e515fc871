// Package locate finds a QR symbol in an arbitrary photo. Decoding the payload
// and detecting the corner points are independent attempts; either may
// succeed while the other fails.
package locate

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
)

// Corners is a detected symbol outline.
type Corners struct {
	// Points are the outer corners of the symbol without quiet zone, in any order.
	Points []imgproc.Point
	// Dimension is the detector's module count per side, or 0 when unknown.
	Dimension int
}

// Detector is the QR detection primitive the locator drives. Decode returns
// an empty payload when nothing was found.
type Detector interface {
	Decode(img image.Image) (string, error)
	Detect(img image.Image) (Corners, bool, error)
}

// CurvedDecoder is implemented by detectors that can also read symbols
// printed on curved surfaces.
type CurvedDecoder interface {
	DecodeCurved(img image.Image) (string, error)
}

// Variant is one preprocessing of the input photo.
type Variant struct {
	Name  string
	Apply func(image.Image) image.Image
}

// DefaultVariants are tried in order: the photo as given, its luminance, a
// lightly blurred luminance and a locally thresholded luminance.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "original", Apply: func(img image.Image) image.Image { return img }},
		{Name: "gray", Apply: func(img image.Image) image.Image { return imgproc.Gray(img) }},
		{Name: "gray+blur", Apply: func(img image.Image) image.Image {
			return imgproc.Blur(imgproc.Gray(img), 1.1)
		}},
		{Name: "gray+threshold", Apply: func(img image.Image) image.Image {
			return imgproc.AdaptiveThreshold(imgproc.Gray(img), 2.0, 2)
		}},
	}
}

// DefaultScales are tried for every variant, in order.
var DefaultScales = []float64{1.0, 0.75, 1.25, 1.5}

// Attempt identifies the variant and scale that produced a payload.
type Attempt struct {
	Variant string
	Scale   float64
	Curved  bool
}

// Result is everything the locator learned about one photo.
type Result struct {
	Token   string
	Decoded bool
	Attempt Attempt

	Corners    Corners
	HasCorners bool
}

// Locator searches preprocessing and scale variants for a decodable symbol.
type Locator struct {
	det      Detector
	log      logrus.FieldLogger
	variants []Variant
	scales   []float64
}

// Option customises a Locator.
type Option func(*Locator)

// WithVariants replaces the preprocessing variants.
func WithVariants(v ...Variant) Option {
	return func(l *Locator) { l.variants = v }
}

// WithScales replaces the scale factors.
func WithScales(s ...float64) Option {
	return func(l *Locator) { l.scales = s }
}

// New returns a Locator driving det.
func New(det Detector, log logrus.FieldLogger, opts ...Option) *Locator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := &Locator{
		det:      det,
		log:      log,
		variants: DefaultVariants(),
		scales:   DefaultScales,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Locate decodes the payload and detects the corners of img.
func (l *Locator) Locate(img image.Image) Result {
	var r Result
	r.Token, r.Attempt, r.Decoded = l.DecodeToken(img)
	r.Corners, r.HasCorners = l.Corners(img)
	return r
}

// DecodeToken returns the first non-empty payload over variants x scales.
// Exhausting the search is a miss, not an error.
func (l *Locator) DecodeToken(img image.Image) (string, Attempt, bool) {
	curved, _ := l.det.(CurvedDecoder)

	for _, v := range l.variants {
		base := v.Apply(img)
		for _, s := range l.scales {
			candidate := imgproc.Scale(base, s)
			a := Attempt{Variant: v.Name, Scale: s}

			if text := l.try(l.det.Decode, candidate, a); text != "" {
				return text, a, true
			}
			if curved != nil {
				a.Curved = true
				if text := l.try(curved.DecodeCurved, candidate, a); text != "" {
					return text, a, true
				}
			}
		}
	}
	l.log.WithField("attempts", len(l.variants)*len(l.scales)).Debug("no qr payload decoded")
	return "", Attempt{}, false
}

func (l *Locator) try(decode func(image.Image) (string, error), img image.Image, a Attempt) string {
	text, err := decode(img)
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"variant": a.Variant,
			"scale":   a.Scale,
			"curved":  a.Curved,
		}).WithError(err).Trace("decode attempt failed")
		return ""
	}
	if text != "" {
		l.log.WithFields(logrus.Fields{
			"variant": a.Variant,
			"scale":   a.Scale,
			"curved":  a.Curved,
		}).Debug("qr payload decoded")
	}
	return text
}

// Corners runs a single detect-only pass over img.
func (l *Locator) Corners(img image.Image) (Corners, bool) {
	c, ok, err := l.det.Detect(img)
	if err != nil {
		l.log.WithError(err).Debug("qr corner detection failed")
		return Corners{}, false
	}
	if !ok || len(c.Points) != 4 {
		return Corners{}, false
	}
	return c, true
}
