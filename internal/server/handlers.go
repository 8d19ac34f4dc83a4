package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/runner"
)

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	return c.String(http.StatusOK, "ok")
}

func (s *Server) runChecks(c echo.Context) error {
	var req runner.RunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.runner.Run(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) listProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context())
	if err != nil {
		return &model.StoreError{Op: "list projects", Err: err}
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) projectReport(c echo.Context) error {
	withAudit := c.QueryParam("audit") == "true" || c.QueryParam("audit") == "1"
	report, err := s.pipeline.ProjectReport(c.Request().Context(), c.Param("id"), withAudit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) keywordReport(c echo.Context) error {
	keyword := c.Param("keyword")
	if unescaped, err := url.PathUnescape(keyword); err == nil {
		keyword = unescaped
	}

	report, err := s.pipeline.KeywordReport(c.Request().Context(), c.Param("id"), keyword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) projectAudit(c echo.Context) error {
	report, err := s.pipeline.Audit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
