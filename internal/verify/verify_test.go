package verify

import (
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/extract"
	"github.com/cristianadrielbraun/protectedqr/internal/imgproc"
	"github.com/cristianadrielbraun/protectedqr/internal/locate"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

const longToken = "PQR-2026-0001-7f3c9a2e4b1d4e8a9c6f2d7b5e1a0f34"

// stubDetector always reads the same payload and outline.
type stubDetector struct {
	token   string
	corners []imgproc.Point
	dim     int
}

func (s stubDetector) Decode(image.Image) (string, error) { return s.token, nil }

func (s stubDetector) Detect(image.Image) (locate.Corners, bool, error) {
	return locate.Corners{Points: s.corners, Dimension: s.dim}, len(s.corners) == 4, nil
}

func newVerifier(det locate.Detector) *Verifier {
	log, _ := test.NewNullLogger()
	return New(contract.V1(), det, log)
}

func generate(t *testing.T, token string, opts compose.Options) (*image.RGBA, compose.Layout) {
	t.Helper()
	log, _ := test.NewNullLogger()
	c := compose.NewComposer(contract.V1(), log)
	_, l, err := c.Plan(token, opts)
	require.NoError(t, err)
	img, err := c.Compose(token, opts)
	require.NoError(t, err)
	return img, l
}

func symbolCorners(l compose.Layout) []imgproc.Point {
	r := l.SymbolRect()
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return []imgproc.Point{{X: x1, Y: y0}, {X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}}
}

func TestVerifyGenuineWithExactCorners(t *testing.T) {
	const token = "verify me 0042"
	img, l := generate(t, token, compose.Options{Size: 600, Border: 1})
	v := newVerifier(stubDetector{token: token, corners: symbolCorners(l), dim: l.SymbolModules()})

	res, err := v.Verify(img)
	require.NoError(t, err)
	require.True(t, res.Decoded())
	assert.Equal(t, token, *res.Token)
	assert.Equal(t, extract.MethodWarpGrid, res.Method)
	// the marker dots sit on top of the pattern, so even a pixel-exact crop
	// cannot score 1.0
	assert.Greater(t, res.ConfidenceScore, 0.92)
	assert.Less(t, res.ConfidenceScore, 1.0)
	assert.True(t, res.IsAuthentic)
	assert.False(t, res.IsPhotocopy)
	assert.Equal(t, 10, res.Candidates, "nine grid crops and one axis crop")
}

func TestVerifyScenarioB(t *testing.T) {
	img, _ := generate(t, longToken, compose.Options{Size: 900, Border: 1})
	v := newVerifier(locate.NewZXing())

	res, err := v.Verify(img)
	require.NoError(t, err)
	require.True(t, res.Decoded())
	assert.Equal(t, longToken, *res.Token)
	assert.Equal(t, extract.MethodWarpGrid, res.Method)
	// twelve marker dots cover part of the pattern, which caps the score
	// below 1.0 even for an untouched artifact
	assert.Greater(t, res.ConfidenceScore, 0.92)
	assert.True(t, res.IsAuthentic)
	assert.False(t, res.IsPhotocopy)
}

// Smaller symbols lose too much of their data to the host square to decode;
// version 5 (37 modules) is the first that round-trips reliably.
func TestVerifyRoundTripAcrossVersions(t *testing.T) {
	payload := "pqr-" + strings.Repeat("7f3c9a2e", 12)
	tests := []struct {
		length  int
		modules int
	}{
		{40, 37},
		{50, 41},
		{60, 45},
		{80, 49},
	}
	v := newVerifier(locate.NewZXing())
	for _, tt := range tests {
		token := payload[:tt.length]
		t.Run(token, func(t *testing.T) {
			img, l := generate(t, token, compose.Options{Size: 900, Border: 1})
			require.Equal(t, tt.modules, l.SymbolModules())
			require.GreaterOrEqual(t, l.SymbolModules(), contract.V1().MinReadableModules)

			res, err := v.Verify(img)
			require.NoError(t, err)
			require.True(t, res.Decoded(), "%d modules", tt.modules)
			assert.Equal(t, token, *res.Token)
			assert.Equal(t, extract.MethodWarpGrid, res.Method)
			assert.Greater(t, res.ConfidenceScore, 0.92)
			assert.True(t, res.IsAuthentic)
		})
	}
}

func TestVerifyScenarioC(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 320, 240))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	res, err := newVerifier(locate.NewZXing()).Verify(blank)
	require.NoError(t, err)
	assert.Nil(t, res.Token)
	assert.Equal(t, 0.0, res.ConfidenceScore)
	assert.False(t, res.IsAuthentic)
}

func TestVerifyScenarioD(t *testing.T) {
	img, _ := generate(t, longToken, compose.Options{Size: 900, Border: 1})
	v := newVerifier(locate.NewZXing())

	genuine, err := v.Verify(img)
	require.NoError(t, err)

	small := imaging.Resize(img, 220, 220, imaging.Box)
	lossy := imaging.Resize(small, 900, 900, imaging.Linear)
	copied, err := v.Verify(lossy)
	require.NoError(t, err)

	assert.Less(t, copied.ConfidenceScore, genuine.ConfidenceScore)
}

func TestVerifyBlurDoesNotRaiseConfidence(t *testing.T) {
	const token = "blur ladder"
	img, l := generate(t, token, compose.Options{Size: 600, Border: 1})
	v := newVerifier(stubDetector{token: token, corners: symbolCorners(l), dim: l.SymbolModules()})
	gray := imgproc.Gray(img)

	prev := 2.0
	for _, sigma := range []float64{0, 1, 2, 4} {
		res, err := v.Verify(imgproc.Blur(gray, sigma))
		require.NoError(t, err)
		assert.LessOrEqual(t, res.ConfidenceScore, prev+0.01, "sigma %.1f", sigma)
		prev = res.ConfidenceScore
	}
	assert.Less(t, prev, 0.85)
}

func TestVerifyWithoutCornersUsesAxis(t *testing.T) {
	const token = "no corners here"
	img, _ := generate(t, token, compose.Options{Size: 600, Border: 1})
	res, err := newVerifier(stubDetector{token: token}).Verify(img)
	require.NoError(t, err)
	require.True(t, res.Decoded())
	assert.Equal(t, extract.MethodAxis, res.Method)
	assert.Equal(t, 1, res.Candidates)
}

func TestVerifyTokenOutsideEncoderCapacity(t *testing.T) {
	token := strings.Repeat("w", 3000)
	img, l := generate(t, "placeholder", compose.Options{Size: 600, Border: 1})
	res, err := newVerifier(stubDetector{token: token, corners: symbolCorners(l)}).Verify(img)
	require.NoError(t, err)
	require.True(t, res.Decoded())
	// no grid can be rebuilt, so only the looser strategies compete
	assert.Contains(t, []string{extract.MethodWarp, extract.MethodAxis}, res.Method)
	assert.Equal(t, 2, res.Candidates)
	assert.False(t, res.IsAuthentic)
}

func TestVerifyRejectsEmptyImage(t *testing.T) {
	v := newVerifier(stubDetector{token: "x"})
	_, err := v.Verify(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.True(t, errors.Is(err, qrerr.ErrInput))

	_, err = v.Verify(nil)
	assert.True(t, errors.Is(err, qrerr.ErrInput))
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":null,"is_authentic":false,"confidence_score":0,"binary_match_ratio":0,"binary_correlation":0,"is_photocopy":false}`, string(b))

	token := "t"
	res := Result{Token: &token, Method: extract.MethodAxis}
	res.ConfidenceScore = 0.5
	b, err = json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"token":"t"`)
	assert.Contains(t, string(b), `"method":"axis"`)
	assert.Contains(t, string(b), `"confidence_score":0.5`)
}
