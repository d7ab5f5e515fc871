package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/locate"
	"github.com/cristianadrielbraun/protectedqr/internal/logging"
	"github.com/cristianadrielbraun/protectedqr/internal/verify"
)

const longToken = "PQR-2026-0001-7f3c9a2e4b1d4e8a9c6f2d7b5e1a0f34"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	c := contract.V1()
	h := New(compose.NewComposer(c, log), verify.New(c, locate.NewZXing(), log), log, Options{})
	r := gin.New()
	r.Use(logging.Middleware(log))
	h.Register(r)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return do(r, req)
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func protectedPNG(t *testing.T, token string, size int) []byte {
	t.Helper()
	log, _ := test.NewNullLogger()
	img, err := compose.NewComposer(contract.V1(), log).Compose(token, compose.Options{Size: size, Border: 1})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	w := do(newRouter(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))
}

func TestQRCodeHandler(t *testing.T) {
	r := newRouter(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/qr?token=hello&size=300", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
	// "hello" is a 21-module symbol, too small to survive the host square
	assert.Equal(t, "format=png;size=300;border=1;modules=21;below_min_version=true", w.Header().Get("X-QR-Debug"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 250)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/qr?token=hello&format=svg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/qr?token=hello&format=jpeg&size=200", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/qr?token="+longToken+"&size=300", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "format=png;size=300;border=1;modules=41;below_min_version=false", w.Header().Get("X-QR-Debug"))
}

func TestQRCodeHandlerRejects(t *testing.T) {
	r := newRouter(t)
	tests := []struct {
		name, query string
		status      int
	}{
		{"missing token", "", http.StatusBadRequest},
		{"blank token", "token=%20%20", http.StatusBadRequest},
		{"size not a number", "token=x&size=big", http.StatusBadRequest},
		{"size too large", "token=x&size=100000", http.StatusBadRequest},
		{"negative border", "token=x&border=-1", http.StatusBadRequest},
		{"border too large", "token=abc123&border=50000", http.StatusBadRequest},
		{"border past limit", "token=abc123&border=17", http.StatusBadRequest},
		{"zero size", "token=x&size=0", http.StatusBadRequest},
		{"over capacity", "token=" + strings.Repeat("w", 3000), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, httptest.NewRequest(http.MethodGet, "/api/qr?"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
}

func TestGenerateProtectedQR(t *testing.T) {
	r := newRouter(t)
	w := postJSON(r, "/generate-protected-qr", map[string]any{"token": "ticket-17", "size": 400})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success     bool   `json:"success"`
		Image       string `json:"qr_image_base64"`
		ContentType string `json:"content_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "image/png", body.ContentType)

	raw, err := base64.StdEncoding.DecodeString(body.Image)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.InDelta(t, 400, cfg.Width, 40)
	assert.Equal(t, cfg.Width, cfg.Height)

	w = postJSON(r, "/generate-protected-qr", map[string]any{"token": "ticket-17", "format": "svg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content_type":"image/svg+xml"`)
}

func TestGenerateProtectedQRErrors(t *testing.T) {
	r := newRouter(t)

	w := postJSON(r, "/generate-protected-qr", map[string]any{"token": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "token is required", errorOf(t, w))

	req := httptest.NewRequest(http.MethodPost, "/generate-protected-qr", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)

	w = postJSON(r, "/generate-protected-qr", map[string]any{"token": "abc123", "border": 5000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w), "border must be between 0 and 16")

	w = postJSON(r, "/generate-protected-qr", map[string]any{"token": strings.Repeat("w", 3000)})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, strings.HasPrefix(errorOf(t, w), "Generation failed: "))
}

func TestVerifyProtectedQRRoundTrip(t *testing.T) {
	r := newRouter(t)
	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString(protectedPNG(t, longToken, 900))

	w := postJSON(r, "/verify-protected-qr", map[string]string{"image_base64": data})
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Token       *string `json:"token"`
		IsAuthentic bool    `json:"is_authentic"`
		IsPhotocopy bool    `json:"is_photocopy"`
		Confidence  float64 `json:"confidence_score"`
		Method      string  `json:"method"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Token)
	assert.Equal(t, longToken, *res.Token)
	assert.True(t, res.IsAuthentic)
	assert.False(t, res.IsPhotocopy)
	assert.Greater(t, res.Confidence, 0.85)
	assert.NotEmpty(t, res.Method)
}

func TestVerifyProtectedQRNoSymbol(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 120, 80))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, blank))

	w := postJSON(newRouter(t), "/verify-protected-qr", map[string]string{"image_base64": base64.StdEncoding.EncodeToString(buf.Bytes())})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":null,"is_authentic":false,"confidence_score":0,"binary_match_ratio":0,"binary_correlation":0,"is_photocopy":false}`, w.Body.String())
}

func TestVerifyProtectedQRRejectsBadImages(t *testing.T) {
	r := newRouter(t)
	for name, in := range map[string]string{
		"empty":      "",
		"not base64": "@@@",
		"not image":  base64.StdEncoding.EncodeToString([]byte("hello world")),
	} {
		w := postJSON(r, "/verify-protected-qr", map[string]string{"image_base64": in})
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func multipartUpload(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("file", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestVerifyUpload(t *testing.T) {
	r := newRouter(t)
	data := protectedPNG(t, longToken, 900)

	body, ct := multipartUpload(t, data)
	req := httptest.NewRequest(http.MethodPost, "/api/verify", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_authentic":true`)

	body, ct = multipartUpload(t, data)
	req = httptest.NewRequest(http.MethodPost, "/api/verify", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("HX-Request", "true")
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Authentic")
	assert.Contains(t, w.Body.String(), longToken)
}

func TestVerifyUploadMissingFile(t *testing.T) {
	r := newRouter(t)

	body, ct := multipartUpload(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/verify", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = multipartUpload(t, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/verify", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("HX-Request", "true")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Could not read the image")
}

func TestGenericToast(t *testing.T) {
	form := "title=Saved&description=done&variant=warning&dismissible=on"
	req := httptest.NewRequest(http.MethodPost, "/api/htmx/toast", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := do(newRouter(t), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-variant="warning"`)
	assert.Contains(t, w.Body.String(), "Saved")
	assert.Contains(t, w.Body.String(), "Dismiss")
}

func TestVerdictToast(t *testing.T) {
	token := "t-1"
	tests := []struct {
		name  string
		res   verify.Result
		title string
	}{
		{"no symbol", verify.Result{}, "No QR code found"},
		{"authentic", verify.Result{Token: &token}, "Authentic"},
		{"photocopy", verify.Result{Token: &token}, "Likely a copy"},
		{"ambiguous", verify.Result{Token: &token}, "Inconclusive"},
	}
	tests[1].res.IsAuthentic = true
	tests[2].res.IsPhotocopy = true
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.title, verdictToast(tt.res).Title)
		})
	}
}

func TestHomeAndSitemap(t *testing.T) {
	r := newRouter(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="600"`)

	req := httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil)
	req.Host = "localhost:8080"
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<loc>http://localhost:8080/</loc>")
}
