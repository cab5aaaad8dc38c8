package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/models"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

func (s *Server) listStories(c echo.Context) error {
	boardID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	q, err := api.ParseQuery(c.QueryParams())
	if err != nil {
		return err
	}
	stories, err := s.stories().ListStories(c.Request().Context(), boardID, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stories)
}

func (s *Server) createStory(c echo.Context) error {
	boardID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req storyservice.CreateStoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.BoardID = boardID
	req.Author = author(c, req.Author)

	ctx := c.Request().Context()
	scope := "board:" + strconv.Itoa(boardID)
	key := c.Request().Header.Get(api.HeaderIdempotencyKey)
	recorded := false
	if key != "" && s.deduper != nil {
		added, err := s.deduper.Add(ctx, scope, key)
		switch {
		case err != nil:
			s.logger.Warn("idempotency check failed", "error", err)
		case !added:
			return api.ErrDuplicateRequest
		default:
			recorded = true
		}
	}

	st, err := s.app.StoryService.CreateStory(ctx, req)
	if err != nil {
		if recorded {
			if rmErr := s.deduper.Remove(ctx, scope, key); rmErr != nil {
				s.logger.Warn("failed to release idempotency key", "error", rmErr)
			}
		}
		return err
	}
	s.evict(ctx, boardID)
	return c.JSON(http.StatusCreated, st)
}

func (s *Server) getStory(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	st, err := s.app.StoryService.GetStory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) updateStory(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req storyservice.UpdateStoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.StoryID = id
	req.Author = author(c, req.Author)

	ctx := c.Request().Context()
	st, err := s.app.StoryService.UpdateStory(ctx, req)
	if err != nil {
		return err
	}
	s.evict(ctx, st.BoardID)
	return c.JSON(http.StatusOK, st)
}

func (s *Server) deleteStory(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := s.app.StoryService.GetStory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.app.StoryService.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, st.BoardID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) moveStory(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req storyservice.MoveStoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	status, err := models.ParseStatus(string(req.Status))
	if err != nil {
		return err
	}
	req.StoryID = id
	req.Status = status
	req.Author = author(c, req.Author)

	ctx := c.Request().Context()
	st, err := s.app.StoryService.MoveStory(ctx, req)
	if err != nil {
		return err
	}
	s.evict(ctx, st.BoardID)
	return c.JSON(http.StatusOK, st)
}

func (s *Server) listActivity(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	activity, err := s.app.StoryService.ListActivity(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activity)
}

func (s *Server) addComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req storyservice.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.StoryID = id
	req.Author = author(c, req.Author)

	entry, err := s.app.StoryService.AddComment(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) storyFields(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	st, err := s.app.StoryService.GetStory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.FieldsResponse{
		StoryID: st.ID,
		Status:  st.Status,
		Fields:  workflow.FieldAccess(st.Status),
	})
}

func (s *Server) addDependency(c echo.Context) error {
	return s.changeDependency(c, s.app.StoryService.AddDependency)
}

func (s *Server) removeDependency(c echo.Context) error {
	return s.changeDependency(c, s.app.StoryService.RemoveDependency)
}

// changeDependency applies op and answers with the updated story
func (s *Server) changeDependency(c echo.Context, op func(ctx context.Context, storyID, dependsOnID int) error) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	dependsOn, err := idParam(c, "dependsOn")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := op(ctx, id, dependsOn); err != nil {
		return err
	}
	st, err := s.app.StoryService.GetStory(ctx, id)
	if err != nil {
		return err
	}
	// Both ends show the edge (depends_on / blocks)
	s.evict(ctx, st.BoardID)
	return c.JSON(http.StatusOK, st)
}
