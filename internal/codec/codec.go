// Package codec moves images across the transport boundary: base64 and data
// URLs in, raster formats and SVG decoded to pixels, PNG and JPEG out.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

// Formats written by Encode.
const (
	PNG  = "png"
	JPEG = "jpg"
	SVG  = "svg"
)

// MaxSVGSide caps the raster size of SVG input.
const MaxSVGSide = 4096

// ContentType returns the MIME type for a format name.
func ContentType(format string) string {
	switch format {
	case JPEG:
		return "image/jpeg"
	case SVG:
		return "image/svg+xml"
	}
	return "image/png"
}

// NormalizeFormat maps user input onto png, jpg or svg, defaulting to png.
func NormalizeFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "jpg", "jpeg":
		return JPEG
	case "svg":
		return SVG
	}
	return PNG
}

// DecodeBase64 accepts plain or URL-safe base64, padded or not, optionally
// wrapped in a data URL.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, qrerr.Input("codec.DecodeBase64", "malformed data URL")
		}
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, qrerr.Input("codec.DecodeBase64", "image data is empty")
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, qrerr.Input("codec.DecodeBase64", "invalid base64 image data")
}

// EncodeBase64 is the inverse of DecodeBase64 without the data URL wrapper.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeImage decodes any registered raster format or an SVG document.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", qrerr.Input("codec.DecodeImage", "image data is empty")
	}
	if looksLikeSVG(data) {
		img, err := RasterizeSVG(bytes.NewReader(data), MaxSVGSide)
		if err != nil {
			return nil, "", err
		}
		return img, SVG, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", qrerr.Input("codec.DecodeImage", "invalid image data: %v", err)
	}
	if img.Bounds().Empty() {
		return nil, "", qrerr.Input("codec.DecodeImage", "image has no pixels")
	}
	return img, format, nil
}

func looksLikeSVG(data []byte) bool {
	head := data[:min(len(data), 512)]
	head = bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg")))
}

// RasterizeSVG renders an SVG document at its viewBox size onto white, scaled
// down to fit maxSide if larger.
func RasterizeSVG(r io.Reader, maxSide int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, qrerr.Input("codec.RasterizeSVG", "invalid svg: %v", err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return nil, qrerr.Input("codec.RasterizeSVG", "svg has no viewBox size")
	}
	if s := math.Max(w, h); s > float64(maxSide) {
		w, h = w*float64(maxSide)/s, h*float64(maxSide)/s
	}
	iw, ih := int(math.Round(w)), int(math.Round(h))
	if iw < 1 || ih < 1 {
		return nil, qrerr.Input("codec.RasterizeSVG", "svg renders to an empty image")
	}

	icon.SetTarget(0, 0, float64(iw), float64(ih))
	rgba := image.NewRGBA(image.Rect(0, 0, iw, ih))
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(iw, ih, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(iw, ih, scanner), 1.0)
	return rgba, nil
}

// Encode writes img as png or jpg.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
	case PNG:
		return png.Encode(w, img)
	}
	return fmt.Errorf("cannot encode raster as %q", format)
}

// EncodePNG returns the PNG bytes of img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
