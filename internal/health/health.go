// Package health exposes the liveness and metrics endpoints when the
// operator enables them.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-digest-bot/internal/logger"
)

// StatusFunc reports the scheduler state for /healthz.
type StatusFunc func() (state string, lastRun time.Time)

type report struct {
	Status    string `json:"status"`
	Scheduler string `json:"scheduler"`
	LastRun   string `json:"last_run,omitempty"`
}

// Server serves /healthz and /metrics on a dedicated port.
type Server struct {
	echo *echo.Echo
	port int
}

func NewServer(port int, status StatusFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		r := report{Status: "ok"}
		if status != nil {
			state, lastRun := status()
			r.Scheduler = state
			if !lastRun.IsZero() {
				r.LastRun = lastRun.Format(time.RFC3339)
			}
		}
		return c.JSON(http.StatusOK, r)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{echo: e, port: port}
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves in a background goroutine; it does not block.
func (s *Server) Start(ctx context.Context) {
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		logger.Info(ctx, "Health server listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Health server stopped", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
