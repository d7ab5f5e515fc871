package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/protectedqr/internal/compose"
	"github.com/cristianadrielbraun/protectedqr/internal/config"
	"github.com/cristianadrielbraun/protectedqr/internal/contract"
	"github.com/cristianadrielbraun/protectedqr/internal/handlers"
	"github.com/cristianadrielbraun/protectedqr/internal/locate"
	"github.com/cristianadrielbraun/protectedqr/internal/logging"
	"github.com/cristianadrielbraun/protectedqr/internal/verify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(logging.Middleware(log))
	r.Use(gin.Recovery())

	// Static assets
	if _, err := os.Stat(cfg.StaticDir); err == nil {
		r.Static("/web/static", cfg.StaticDir)
	}

	det, release, err := locate.Open(cfg.Detector)
	if err != nil {
		log.WithError(err).Fatal("open detector")
	}
	defer release()

	c := contract.V1()
	h := handlers.New(
		compose.NewComposer(c, log),
		verify.New(c, det, log),
		log,
		handlers.Options{MaxUploadBytes: cfg.MaxUploadBytes, DefaultSize: cfg.DefaultSize},
	)
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	h.Register(r)

	addr := cfg.Addr()
	log.WithField("addr", addr).Info("protected qr service listening")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
