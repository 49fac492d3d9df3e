// Package ops exposes a small read-only HTTP surface for operators: process
// health and a JSON view of the fulfillment session. It is not part of the
// checkout flow.
package ops

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/solanabar/dispenser/internal/controller"
)

// StatusSource provides the session snapshot served on /status.
type StatusSource interface {
	Status() controller.Snapshot
}

// Server is the operator HTTP endpoint.
type Server struct {
	echo *echo.Echo
	src  StatusSource
	log  *zap.Logger
}

// NewServer builds the server and its routes.
func NewServer(src StatusSource, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, src: src, log: log.Named("ops")}
	e.GET("/healthz", s.handleHealth)
	e.GET("/status", s.handleStatus)
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.log.Info("ops server listening", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.src.Status())
}
