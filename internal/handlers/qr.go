package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/codec"
	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
)

// render produces the encoded artifact for one token along with its layout.
// The composer enforces the size and border limits.
func (h *Handler) render(token string, opts compose.Options, format string) ([]byte, compose.Layout, error) {
	_, l, err := h.composer.Plan(token, opts)
	if err != nil {
		return nil, compose.Layout{}, err
	}
	if format == codec.SVG {
		doc, err := h.composer.ComposeSVG(token, opts)
		return doc, l, err
	}
	img, err := h.composer.Compose(token, opts)
	if err != nil {
		return nil, l, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, format); err != nil {
		return nil, l, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), l, nil
}

// intQuery parses an integer query parameter, falling back to def when absent.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, qrerr.Input("handlers", "%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// QRCodeHandler streams a protected QR for the token query parameter as PNG,
// JPEG or SVG.
func (h *Handler) QRCodeHandler(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token parameter is required"})
		return
	}

	format := codec.NormalizeFormat(c.DefaultQuery("format", codec.PNG))
	defaults := h.composer.DefaultOptions()
	size, err := intQuery(c, "size", h.opts.DefaultSize)
	if err != nil {
		h.fail(c, "Generation failed", err)
		return
	}
	border, err := intQuery(c, "border", defaults.Border)
	if err != nil {
		h.fail(c, "Generation failed", err)
		return
	}

	log := h.logger(c).WithFields(logrus.Fields{"format": format, "size": size, "border": border, "token_len": len(token)})
	log.Debug("qr request start")

	body, l, err := h.render(token, compose.Options{Size: size, Border: border}, format)
	if err != nil {
		h.fail(c, "Generation failed", err)
		return
	}

	c.Header("X-QR-Debug", fmt.Sprintf("format=%s;size=%d;border=%d;modules=%d;below_min_version=%t",
		format, size, border, l.SymbolModules(), h.composer.BelowMinimum(l)))
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, codec.ContentType(format), body)
	log.WithField("bytes", len(body)).Debug("qr sent")
}

type generateRequest struct {
	Token  string `json:"token"`
	Size   *int   `json:"size"`
	Border *int   `json:"border"`
	Format string `json:"format"`
}

// GenerateProtectedQR returns the artifact base64-encoded in JSON.
func (h *Handler) GenerateProtectedQR(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	opts := compose.Options{Size: h.opts.DefaultSize, Border: h.composer.DefaultOptions().Border}
	if req.Size != nil {
		opts.Size = *req.Size
	}
	if req.Border != nil {
		opts.Border = *req.Border
	}
	format := codec.PNG
	if req.Format != "" {
		format = codec.NormalizeFormat(req.Format)
	}

	body, _, err := h.render(req.Token, opts, format)
	if err != nil {
		h.fail(c, "Generation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"qr_image_base64": codec.EncodeBase64(body),
		"content_type":    codec.ContentType(format),
	})
}
