// Package qrmatrix builds the QR module matrix for a token at error-correction
// level H, quiet zone included. The matrix side depends only on the token and
// the border, which lets a verifier recover the exact grid from the decoded
// payload alone.
package qrmatrix

import (
	"errors"
	"fmt"

	"github.com/yeqown/go-qrcode/v2"

	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

// Matrix is a square grid of modules. The outer Border modules on every side
// are the light quiet zone. True is dark.
type Matrix struct {
	size   int
	border int
	bits   []bool
}

// Size is the number of modules per side, quiet zone included.
func (m *Matrix) Size() int { return m.size }

// Border is the quiet zone width in modules.
func (m *Matrix) Border() int { return m.border }

// Symbol is the side of the QR symbol itself.
func (m *Matrix) Symbol() int { return m.size - 2*m.border }

// Get reports whether the module at (row, col) is dark.
func (m *Matrix) Get(row, col int) bool {
	return m.bits[row*m.size+col]
}

// Build encodes token at level H and surrounds the symbol with border light
// modules.
func Build(token string, border int) (*Matrix, error) {
	if token == "" {
		return nil, qrerr.Input("qrmatrix.Build", "token is empty")
	}
	if border < 0 {
		return nil, qrerr.Input("qrmatrix.Build", "border must not be negative, got %d", border)
	}
	qrc, err := qrcode.NewWith(token, qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest))
	if err != nil {
		return nil, qrerr.Generation("qrmatrix.Build", err)
	}

	w := &matrixWriter{border: border}
	if err := qrc.Save(w); err != nil {
		return nil, qrerr.Generation("qrmatrix.Build", err)
	}
	if w.m == nil || w.m.Symbol() != qrc.Dimension() {
		return nil, qrerr.Generation("qrmatrix.Build", fmt.Errorf("matrix side does not match dimension %d", qrc.Dimension()))
	}
	return w.m, nil
}

// ModuleCount rebuilds the matrix the composer would have built for token and
// border and returns its side length, quiet zone included.
func ModuleCount(token string, border int) (int, error) {
	m, err := Build(token, border)
	if err != nil {
		return 0, err
	}
	return m.Size(), nil
}

// matrixWriter implements qrcode.Writer, capturing the module grid instead of
// rendering it.
type matrixWriter struct {
	border int
	m      *Matrix
}

func (w *matrixWriter) Write(mat qrcode.Matrix) error {
	width, height := mat.Width(), mat.Height()
	if width != height || width == 0 {
		return errors.New("qr matrix is not square")
	}
	b := w.border
	side := width + 2*b
	m := &Matrix{size: side, border: b, bits: make([]bool, side*side)}
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		m.bits[(y+b)*side+x+b] = v.IsSet()
	})
	w.m = m
	return nil
}

func (w *matrixWriter) Close() error { return nil }
