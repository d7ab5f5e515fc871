// Package imgproc holds the raster primitives used by verification: grayscale
// conversion, filtering, resampling and perspective rectification.
package imgproc

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is a sub-pixel image position. Pixel (i, j) covers [i, i+1) x [j, j+1).
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y) }

// Quad is four corners ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// OrderCorners sorts four unordered corners. With y growing downward the
// top-left minimises x+y, the bottom-right maximises it, the top-right
// minimises y-x and the bottom-left maximises y-x.
func OrderCorners(pts []Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, fmt.Errorf("need 4 corners, got %d", len(pts))
	}
	var q Quad
	tl, br, tr, bl := 0, 0, 0, 0
	for i, p := range pts {
		s, d := p.X+p.Y, p.Y-p.X
		if s < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if s > pts[br].X+pts[br].Y {
			br = i
		}
		if d < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if d > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}
	q[0], q[1], q[2], q[3] = pts[tl], pts[tr], pts[br], pts[bl]
	return q, nil
}

// MaxEdge is the longest of the four sides.
func (q Quad) MaxEdge() float64 {
	m := 0.0
	for i := range q {
		a, b := q[i], q[(i+1)%4]
		m = math.Max(m, math.Hypot(b.X-a.X, b.Y-a.Y))
	}
	return m
}

// Bounds is the smallest integer rectangle holding all four corners.
func (q Quad) Bounds() image.Rectangle {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		x0, y0 = math.Min(x0, p.X), math.Min(y0, p.Y)
		x1, y1 = math.Max(x1, p.X), math.Max(y1, p.Y)
	}
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

// Homography is a row-major 3x3 projective transform with h[8] == 1.
type Homography [9]float64

// ErrDegenerate is returned when four points do not span a plane.
var ErrDegenerate = errors.New("degenerate quadrilateral")

// NewHomography solves for the transform taking src[i] to dst[i].
func NewHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Homography{}, ErrDegenerate
		}
	}
	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return Homography{}, ErrDegenerate
		}
	}
	out[8] = 1
	return out, nil
}

// SquareToQuad maps the unit square (0,0),(1,0),(1,1),(0,1) onto q.
func SquareToQuad(q Quad) (Homography, error) {
	return NewHomography([4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, q)
}

// Apply transforms (x, y).
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}
