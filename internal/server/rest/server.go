// Package rest exposes the HTTP API: memory record operations under /v1,
// the document sharing sidecar under /v1/share, and the public landing
// and health endpoints.
package rest

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/logging"
	"github.com/zynoxlab/zynox-cloud/internal/server/memories"
	"github.com/zynoxlab/zynox-cloud/internal/server/shares"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address  string
	apiKey   string
	memories *memories.Service
	shares   *shares.Service
	logger   logging.Logger
}

func NewServer(address, apiKey string, ms *memories.Service, ss *shares.Service, logger logging.Logger) *Server {
	return &Server{
		address:  address,
		apiKey:   apiKey,
		memories: ms,
		shares:   ss,
		logger:   logger.With("module", "rest_server"),
	}
}

// routes builds the echo instance with middleware and all handlers
// registered. Split from Run so tests can drive handlers through
// httptest without binding a port.
func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger())

	e.GET("/ping", s.handlePing)
	e.GET("/", s.handleLanding)

	v1 := e.Group("/v1", s.keyAuth())
	v1.POST("/save", s.handleSave)
	v1.GET("/list/:owner_id", s.handleList)
	v1.GET("/download/:id", s.handleDownload)
	v1.DELETE("/delete/:id", s.handleDelete)
	v1.POST("/query/:owner_id", s.handleQuery)

	v1.POST("/share/upload", s.handleShareUpload)
	v1.GET("/share/list/:owner_id", s.handleShareList)
	v1.GET("/share/:id", s.handleShareDownload)
	v1.GET("/share/:id/link", s.handleShareLink)
	v1.DELETE("/share/:id", s.handleShareDelete)

	return e
}

// keyAuth checks the X-Api-Key header against the configured key. A
// missing or mismatched key yields 401 with the fixed detail body.
func (s *Server) keyAuth() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-Api-Key",
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return s.writeError(c, common.ErrorUnauthorized)
		},
	})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "request",
				"method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	e := s.routes()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
