package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/codec"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
	"github.com/cristianadrielbraun/protectedqr/internal/verify"
)

type verifyRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// check decodes raw image bytes and verifies them.
func (h *Handler) check(c *gin.Context, data []byte) (verify.Result, error) {
	img, format, err := codec.DecodeImage(data)
	if err != nil {
		return verify.Result{}, err
	}
	res, err := h.verifier.Verify(img)
	if err != nil {
		return verify.Result{}, err
	}
	h.logger(c).WithFields(logrus.Fields{
		"input_format": format,
		"decoded":      res.Decoded(),
		"method":       res.Method,
		"confidence":   res.ConfidenceScore,
	}).Info("verification done")
	return res, nil
}

// VerifyProtectedQR verifies a base64 or data-URL encoded photo.
func (h *Handler) VerifyProtectedQR(c *gin.Context) {
	// base64 inflates by a third
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes*4/3+1024)

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	data, err := codec.DecodeBase64(req.ImageBase64)
	if err != nil {
		h.fail(c, "Verification failed", err)
		return
	}
	res, err := h.check(c, data)
	if err != nil {
		h.fail(c, "Verification failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifyUpload verifies a multipart "file" upload. HTMX requests get the
// verdict as a toast fragment instead of JSON.
func (h *Handler) VerifyUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+4096)
	htmx := c.GetHeader("HX-Request") == "true"

	data, err := readUpload(c)
	if err == nil {
		var res verify.Result
		if res, err = h.check(c, data); err == nil {
			if htmx {
				h.toast(c, verdictToast(res))
				return
			}
			c.JSON(http.StatusOK, res)
			return
		}
	}

	if htmx && errors.Is(err, qrerr.ErrInput) {
		_ = c.Error(err)
		h.toast(c, errorToast(err))
		return
	}
	h.fail(c, "Verification failed", err)
}

func readUpload(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, qrerr.Input("handlers", "file upload is required: %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, qrerr.Input("handlers", "open upload: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, qrerr.Input("handlers", "read upload: %v", err)
	}
	return data, nil
}
