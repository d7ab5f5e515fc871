package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h, cell int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

func TestOrderCorners(t *testing.T) {
	want := Quad{{10, 12}, {90, 8}, {94, 88}, {6, 92}}
	perms := [][]int{{0, 1, 2, 3}, {2, 3, 0, 1}, {3, 1, 0, 2}, {1, 0, 3, 2}}
	for _, p := range perms {
		pts := []Point{want[p[0]], want[p[1]], want[p[2]], want[p[3]]}
		got, err := OrderCorners(pts)
		require.NoError(t, err)
		assert.Equal(t, want, got, "perm %v", p)
	}

	_, err := OrderCorners([]Point{{0, 0}, {1, 1}})
	assert.Error(t, err)
}

func TestOrderCornersRotatedSquare(t *testing.T) {
	// a square rotated by a few degrees keeps its image-space roles
	pts := []Point{{102, 0}, {200, 102}, {98, 200}, {0, 98}}
	q, err := OrderCorners(pts)
	require.NoError(t, err)
	assert.Equal(t, Point{0, 98}, q[0])
	assert.Equal(t, Point{102, 0}, q[1])
	assert.Equal(t, Point{200, 102}, q[2])
	assert.Equal(t, Point{98, 200}, q[3])
}

func TestQuadMaxEdgeAndBounds(t *testing.T) {
	q := Quad{{0, 0}, {30, 0}, {30, 40}, {0, 40}}
	assert.InDelta(t, 40, q.MaxEdge(), 1e-9)
	assert.Equal(t, image.Rect(0, 0, 30, 40), q.Bounds())

	q = Quad{{1.2, 2.7}, {10.5, 2}, {10, 9.1}, {1, 9}}
	assert.Equal(t, image.Rect(1, 2, 11, 10), q.Bounds())
}

func TestHomographyMapsCorners(t *testing.T) {
	q := Quad{{12, 15}, {180, 25}, {170, 190}, {5, 170}}
	h, err := SquareToQuad(q)
	require.NoError(t, err)

	unit := [4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, u := range unit {
		x, y := h.Apply(u.X, u.Y)
		assert.InDelta(t, q[i].X, x, 1e-6)
		assert.InDelta(t, q[i].Y, y, 1e-6)
	}
}

func TestHomographyDegenerate(t *testing.T) {
	_, err := SquareToQuad(Quad{{5, 5}, {5, 5}, {5, 5}, {5, 5}})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestRectifyAxisAlignedIsExact(t *testing.T) {
	src := checker(120, 120, 4)
	// the 100px symbol starts at 10; one border unit of 4px on each side
	q := Quad{{10, 10}, {110, 10}, {110, 110}, {10, 110}}
	out, err := Rectify(src, q, 25, 1, 108)
	require.NoError(t, err)
	require.Equal(t, 108, out.Bounds().Dx())

	for y := 0; y < 108; y++ {
		for x := 0; x < 108; x++ {
			want := src.GrayAt(x+6, y+6).Y
			if got := out.GrayAt(x, y).Y; got != want {
				t.Fatalf("(%d,%d): got %d want %d", x, y, got, want)
			}
		}
	}
}

func TestWarpOutsideIsWhite(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	out := Warp(src, 3, func(x, y float64) (float64, float64) { return x + 10, y })
	for _, v := range out.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestGray(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(0, 0, color.RGBA{255, 255, 255, 255})
	rgba.Set(1, 0, color.RGBA{0, 0, 0, 255})
	g := Gray(rgba)
	assert.Equal(t, []uint8{255, 0}, g.Pix)

	sub := checker(8, 8, 2).SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)
	cp := Gray(sub)
	assert.Equal(t, image.Rect(0, 0, 4, 4), cp.Bounds())
	assert.Equal(t, sub.GrayAt(2, 2), cp.GrayAt(0, 0))
}

func TestBlurSoftensEdges(t *testing.T) {
	src := checker(32, 32, 8)
	b := Blur(src, 2)
	assert.Equal(t, src.Bounds(), b.Bounds())
	v := b.GrayAt(8, 4).Y
	assert.True(t, v > 0 && v < 255, "edge pixel %d should be grey", v)

	assert.Equal(t, src.Pix, Blur(src, 0).Pix)
}

func TestAdaptiveThresholdIsBinary(t *testing.T) {
	src := checker(40, 40, 5)
	// uneven illumination
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			v := src.GrayAt(x, y).Y
			src.SetGray(x, y, color.Gray{Y: uint8(int(v)*(40+x)/80 + 20)})
		}
	}
	out := AdaptiveThreshold(src, 2, 2)
	for _, v := range out.Pix {
		require.True(t, v == 0 || v == 255)
	}
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), out.GrayAt(7, 2).Y)
}

func TestScale(t *testing.T) {
	src := checker(40, 20, 4)
	assert.Same(t, image.Image(src), Scale(src, 1))

	up := Scale(src, 1.5)
	assert.Equal(t, image.Rect(0, 0, 60, 30), up.Bounds())
	down := Scale(src, 0.75)
	assert.Equal(t, image.Rect(0, 0, 30, 15), down.Bounds())
}

func TestResizeNearestKeepsBinary(t *testing.T) {
	out := ResizeNearest(checker(10, 10, 2), 25, 25)
	assert.Equal(t, image.Rect(0, 0, 25, 25), out.Bounds())
	for _, v := range out.Pix {
		require.True(t, v == 0 || v == 255)
	}
}

func TestCrop(t *testing.T) {
	src := checker(10, 10, 1)
	c := Crop(src, image.Rect(8, 8, 12, 12))
	assert.Equal(t, image.Rect(0, 0, 4, 4), c.Bounds())
	assert.Equal(t, src.GrayAt(8, 8), c.GrayAt(0, 0))
	assert.Equal(t, src.GrayAt(9, 9), c.GrayAt(1, 1))
	assert.Equal(t, uint8(255), c.GrayAt(3, 3).Y)

	empty := Crop(src, image.Rect(20, 20, 22, 22))
	assert.Equal(t, []uint8{255, 255, 255, 255}, empty.Pix)
}

func TestRotateCW(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	g.SetGray(0, 0, color.Gray{Y: 200}) // top-left marker

	one := RotateCW(g, 1)
	assert.Equal(t, image.Rect(0, 0, 2, 3), one.Bounds())
	assert.Equal(t, uint8(200), one.GrayAt(1, 0).Y, "top-left moves to top-right")

	two := RotateCW(g, 2)
	assert.Equal(t, uint8(200), two.GrayAt(2, 1).Y)

	three := RotateCW(g, 3)
	assert.Equal(t, uint8(200), three.GrayAt(0, 2).Y)

	assert.Equal(t, g.Pix, RotateCW(g, 4).Pix)
	assert.Equal(t, one.Pix, RotateCW(g, -3).Pix)
}
