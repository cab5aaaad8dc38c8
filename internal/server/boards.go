package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoetrevino/storyboard/internal/api"
	boardservice "github.com/thenoetrevino/storyboard/internal/services/board"
)

func (s *Server) listTags(c echo.Context) error {
	tags, err := s.app.BoardService.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) listBoards(c echo.Context) error {
	boards, err := s.app.BoardService.ListBoards(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, boards)
}

func (s *Server) createBoard(c echo.Context) error {
	var req boardservice.CreateBoardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	board, err := s.app.BoardService.CreateBoard(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, board)
}

func (s *Server) getBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	board, err := s.app.BoardService.GetBoard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) updateBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req boardservice.UpdateBoardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.ID = id
	board, err := s.app.BoardService.UpdateBoard(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) deleteBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.app.BoardService.DeleteBoard(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listMembers(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	members, err := s.app.BoardService.ListMembers(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

func (s *Server) addMember(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req api.MemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := s.app.BoardService.AddMember(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, member)
}

func (s *Server) removeMember(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	memberID, err := idParam(c, "memberID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.app.BoardService.RemoveMember(ctx, id, memberID); err != nil {
		return err
	}
	// Assignments of the member are gone too
	s.evict(ctx, id)
	return c.NoContent(http.StatusNoContent)
}
