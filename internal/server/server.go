// Package server exposes runs and reports over HTTP and schedules recurring runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/pipeline"
	"github.com/ppiankov/aivis/internal/runner"
	"github.com/ppiankov/aivis/internal/store"
)

// Server is the HTTP API
type Server struct {
	echo     *echo.Echo
	store    store.Store
	runner   *runner.Runner
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Deps are the collaborators the handlers call
type Deps struct {
	Store    store.Store
	Runner   *runner.Runner
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// New wires the routes
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		echo:     echo.New(),
		store:    deps.Store,
		runner:   deps.Runner,
		pipeline: deps.Pipeline,
		metrics:  deps.Metrics,
		logger:   logger,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.observe)
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := e.Group("/api")
	api.POST("/checks/run", s.runChecks)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.projectReport)
	api.GET("/projects/:id/keywords/:keyword", s.keywordReport)
	api.GET("/projects/:id/audit", s.projectAudit)

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// statusFor maps domain errors onto HTTP status codes and client-facing messages
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	var inputErr *model.InputError
	var storeErr *model.StoreError

	switch {
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError, storeErr.Message()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	code, msg := statusFor(err)

	req := c.Request()
	level := slog.LevelWarn
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(req.Context(), level, "request failed",
		"status", code, "method", req.Method, "path", req.URL.Path, "remote", c.RealIP(), "error", err)

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]interface{}{"error": msg})
	}
}

// observe counts requests by route template and final status
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		code := c.Response().Status
		if err != nil {
			code, _ = statusFor(err)
		}
		s.metrics.ObserveHTTP(c.Request().Method, c.Path(), code)
		return err
	}
}
