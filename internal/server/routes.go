package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/thenoetrevino/storyboard/internal/api"
)

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", s.healthz)

	g := e.Group("/api")
	g.GET("/metrics", s.getMetrics)
	g.GET("/tags", s.listTags)

	g.GET("/boards", s.listBoards)
	g.POST("/boards", s.createBoard)
	g.GET("/boards/:id", s.getBoard)
	g.PATCH("/boards/:id", s.updateBoard)
	g.DELETE("/boards/:id", s.deleteBoard)
	g.GET("/boards/:id/members", s.listMembers)
	g.POST("/boards/:id/members", s.addMember)
	g.DELETE("/boards/:id/members/:memberID", s.removeMember)
	g.GET("/boards/:id/stories", s.listStories)
	g.POST("/boards/:id/stories", s.createStory)
	g.GET("/boards/:id/export/taiga", s.exportTaiga)
	g.GET("/boards/:id/stream", s.stream)

	g.GET("/stories/:id", s.getStory)
	g.PATCH("/stories/:id", s.updateStory)
	g.DELETE("/stories/:id", s.deleteStory)
	g.POST("/stories/:id/move", s.moveStory)
	g.GET("/stories/:id/activity", s.listActivity)
	g.POST("/stories/:id/activity", s.addComment)
	g.GET("/stories/:id/fields", s.storyFields)
	g.POST("/stories/:id/dependencies/:dependsOn", s.addDependency)
	g.DELETE("/stories/:id/dependencies/:dependsOn", s.removeDependency)
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.app.Ping(c.Request().Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, api.Health{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, api.Health{Status: "ok"})
}

func (s *Server) getMetrics(c echo.Context) error {
	snap := s.metrics.GetSnapshot()
	if s.bus != nil {
		stats := s.bus.Stats()
		snap.Bus = &stats
	}
	return c.JSON(http.StatusOK, snap)
}

// idParam parses a positive integer path parameter
func idParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", api.ErrInvalidRequest, name)
	}
	return id, nil
}

// bind decodes the JSON body into v
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			msg = fmt.Sprint(he.Message)
		}
		return fmt.Errorf("%w: %s", api.ErrInvalidRequest, msg)
	}
	return nil
}

// author prefers the body value and falls back to the X-Author header
func author(c echo.Context, fromBody string) string {
	if a := strings.TrimSpace(fromBody); a != "" {
		return a
	}
	return strings.TrimSpace(c.Request().Header.Get(api.HeaderAuthor))
}
