package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/protectedqr/internal/verify"
	"github.com/cristianadrielbraun/protectedqr/web/components"
)

// GenericToast returns a Toast component rendered as HTML for HTMX swaps.
func (h *Handler) GenericToast(c *gin.Context) {
	h.toast(c, components.ToastProps{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Variant:     components.ParseVariant(c.PostForm("variant")),
		Dismissible: c.PostForm("dismissible") == "on",
	})
}

func (h *Handler) toast(c *gin.Context, p components.ToastProps) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := components.Toast(p).Render(c.Request.Context(), c.Writer); err != nil {
		h.logger(c).WithError(err).Error("render toast")
	}
}

func verdictToast(res verify.Result) components.ToastProps {
	p := components.ToastProps{ID: "verdict", Dismissible: true}
	if !res.Decoded() {
		p.Variant = components.VariantInfo
		p.Title = "No QR code found"
		p.Description = "Try a sharper photo with the whole code in frame."
		return p
	}

	switch {
	case res.IsAuthentic:
		p.Variant = components.VariantSuccess
		p.Title = "Authentic"
		p.Description = "The centre pattern matches this token."
	case res.IsPhotocopy:
		p.Variant = components.VariantError
		p.Title = "Likely a copy"
		p.Description = "The centre pattern is too degraded for an original print."
	default:
		p.Variant = components.VariantWarning
		p.Title = "Inconclusive"
		p.Description = "The centre pattern only partly matches. Retake the photo closer and in focus."
	}
	p.Detail = []components.Field{
		{Label: "token", Value: *res.Token},
		{Label: "confidence", Value: fmt.Sprintf("%.3f", res.ConfidenceScore)},
		{Label: "match", Value: fmt.Sprintf("%.3f", res.BinaryMatchRatio)},
		{Label: "correlation", Value: fmt.Sprintf("%.3f", res.BinaryCorrelation)},
		{Label: "method", Value: res.Method},
	}
	return p
}

func errorToast(err error) components.ToastProps {
	return components.ToastProps{
		ID:          "verdict",
		Variant:     components.VariantError,
		Title:       "Could not read the image",
		Description: err.Error(),
		Dismissible: true,
	}
}
