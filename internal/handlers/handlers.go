package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/logging"
	"github.com/cristianadrielbraun/protectedqr/internal/qrerr"
	"github.com/cristianadrielbraun/protectedqr/internal/verify"
	"github.com/cristianadrielbraun/protectedqr/web/pages"
)

// Options tunes request handling.
type Options struct {
	MaxUploadBytes int64
	DefaultSize    int
}

// Handler holds the services the HTTP handlers call into.
type Handler struct {
	composer *compose.Composer
	verifier *verify.Verifier
	log      logrus.FieldLogger
	opts     Options
}

// New returns a Handler. Zero option fields fall back to the composer's
// defaults and a 10 MiB upload limit.
func New(composer *compose.Composer, verifier *verify.Verifier, log logrus.FieldLogger, opts Options) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = composer.DefaultOptions().Size
	}
	return &Handler{composer: composer, verifier: verifier, log: log, opts: opts}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Home)
	r.GET("/health", h.Health)
	r.GET("/sitemap.xml", h.SitemapXML)
	r.POST("/generate-protected-qr", h.GenerateProtectedQR)
	r.POST("/verify-protected-qr", h.VerifyProtectedQR)

	api := r.Group("/api")
	{
		api.GET("/qr", h.QRCodeHandler)
		api.POST("/verify", h.VerifyUpload)
		api.POST("/htmx/toast", h.GenericToast)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Home renders the landing page.
func (h *Handler) Home(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	props := pages.HomeProps{DefaultSize: h.opts.DefaultSize, DefaultBorder: h.composer.DefaultOptions().Border}
	if err := pages.HomePage(props).Render(c.Request.Context(), c.Writer); err != nil {
		h.logger(c).WithError(err).Error("render home page")
	}
}

// SitemapXML serves a minimal sitemap for the site.
func (h *Handler) SitemapXML(c *gin.Context) {
	c.Header("Content-Type", "application/xml; charset=utf-8")
	scheme := "https"
	host := c.Request.Host
	if xf := c.Request.Header.Get("X-Forwarded-Proto"); xf != "" {
		scheme = xf
	} else if c.Request.TLS == nil && (host == "localhost:8080" || host == "127.0.0.1:8080") {
		scheme = "http"
	}
	xml := "" +
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<urlset xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">\n" +
		"  <url>\n" +
		"    <loc>" + scheme + "://" + host + "/</loc>\n" +
		"    <changefreq>monthly</changefreq>\n" +
		"    <priority>1.0</priority>\n" +
		"  </url>\n" +
		"</urlset>\n"
	c.String(http.StatusOK, xml)
}

func (h *Handler) logger(c *gin.Context) logrus.FieldLogger {
	return logging.Entry(c, h.log)
}

// fail writes the error JSON. Input errors are 400 with the bare message;
// anything else is 500 prefixed with what failed.
func (h *Handler) fail(c *gin.Context, prefix string, err error) {
	_ = c.Error(err)
	if errors.Is(err, qrerr.ErrInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger(c).WithError(err).Error(prefix)
	c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
}
