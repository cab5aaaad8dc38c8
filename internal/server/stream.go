package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/thenoetrevino/storyboard/internal/export"
)

func (s *Server) exportTaiga(c echo.Context) error {
	boardID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	project, err := export.Snapshot(c.Request().Context(), s.app.BoardService, s.stories(), boardID, s.exportOpts)
	if err != nil {
		return err
	}
	data, err := export.Encode(project)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", project.Slug+"-taiga.json"))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// stream writes board events as server-sent events until the client goes
// away or the server shuts down. Each event carries its sequence id.
func (s *Server) stream(c echo.Context) error {
	boardID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := s.app.BoardService.GetBoard(ctx, boardID); err != nil {
		return err
	}
	if s.bus == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event stream disabled")
	}

	ch, cancel := s.bus.Subscribe(boardID)
	defer cancel()
	s.metrics.AddConnectedClients(1)
	defer s.metrics.AddConnectedClients(-1)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				s.logger.Warn("failed to encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.SequenceID, ev.Type, data); err != nil {
				return nil
			}
			w.Flush()
			s.metrics.IncEventsSent()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
