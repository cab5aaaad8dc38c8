package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
)

const (
	maxBoardNameLength  = 100
	maxMemberNameLength = 50
)

// Service defines all board-related business operations
type Service interface {
	// Read operations
	ListBoards(ctx context.Context) ([]*models.Board, error)
	GetBoard(ctx context.Context, id int) (*models.Board, error)
	ListMembers(ctx context.Context, boardID int) ([]*models.Member, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)

	// Write operations
	CreateBoard(ctx context.Context, req CreateBoardRequest) (*models.Board, error)
	UpdateBoard(ctx context.Context, req UpdateBoardRequest) (*models.Board, error)
	DeleteBoard(ctx context.Context, id int) error

	// Team
	AddMember(ctx context.Context, boardID int, name string) (*models.Member, error)
	RemoveMember(ctx context.Context, boardID, memberID int) error
}

// CreateBoardRequest encapsulates data for creating a board
type CreateBoardRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members,omitempty"`
}

// UpdateBoardRequest encapsulates data for updating a board
type UpdateBoardRequest struct {
	ID          int     `json:"-"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type repository interface {
	database.BoardRepository
	database.MemberRepository
	database.TagRepository
}

// service implements Service interface
type service struct {
	repo        repository
	eventClient events.EventPublisher
}

// NewService creates a new board service. eventClient may be nil.
func NewService(repo repository, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// ListBoards retrieves all boards
func (s *service) ListBoards(ctx context.Context) ([]*models.Board, error) {
	return s.repo.GetAllBoards(ctx)
}

// GetBoard retrieves a specific board
func (s *service) GetBoard(ctx context.Context, id int) (*models.Board, error) {
	if id <= 0 {
		return nil, ErrInvalidBoardID
	}
	b, err := s.repo.GetBoardByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrBoardNotFound)
	}
	return b, nil
}

// CreateBoard creates a board and its initial members
func (s *service) CreateBoard(ctx context.Context, req CreateBoardRequest) (*models.Board, error) {
	name, err := validateBoardName(req.Name)
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		clean, err := validateMemberName(m)
		if err != nil {
			return nil, err
		}
		members = append(members, clean)
	}

	b, err := s.repo.CreateBoard(ctx, name, strings.TrimSpace(req.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true
		if _, err := s.repo.AddMember(ctx, b.ID, m); err != nil {
			return nil, fmt.Errorf("failed to add member %q: %w", m, err)
		}
	}

	s.publish(events.EventBoardChanged, b.ID)
	return b, nil
}

// UpdateBoard renames or re-describes a board
func (s *service) UpdateBoard(ctx context.Context, req UpdateBoardRequest) (*models.Board, error) {
	current, err := s.GetBoard(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	name, description := current.Name, current.Description
	if req.Name != nil {
		if name, err = validateBoardName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
	}

	if err := s.repo.UpdateBoard(ctx, req.ID, name, description); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", mapNotFound(err, ErrBoardNotFound))
	}

	s.publish(events.EventBoardChanged, req.ID)
	return s.GetBoard(ctx, req.ID)
}

// DeleteBoard removes a board with all of its stories
func (s *service) DeleteBoard(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidBoardID
	}
	if err := s.repo.DeleteBoard(ctx, id); err != nil {
		return mapNotFound(err, ErrBoardNotFound)
	}
	s.publish(events.EventBoardDeleted, id)
	return nil
}

// ListMembers returns the team of a board
func (s *service) ListMembers(ctx context.Context, boardID int) ([]*models.Member, error) {
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return s.repo.GetMembersByBoard(ctx, boardID)
}

// AddMember adds a uniquely named member to a board
func (s *service) AddMember(ctx context.Context, boardID int, name string) (*models.Member, error) {
	clean, err := validateMemberName(name)
	if err != nil {
		return nil, err
	}
	existing, err := s.ListMembers(ctx, boardID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Name == clean {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, clean)
		}
	}

	m, err := s.repo.AddMember(ctx, boardID, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	s.publish(events.EventBoardChanged, boardID)
	return m, nil
}

// RemoveMember removes a member from a board. Their assignments are dropped.
func (s *service) RemoveMember(ctx context.Context, boardID, memberID int) error {
	if memberID <= 0 {
		return ErrInvalidMemberID
	}
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return mapNotFound(err, ErrMemberNotFound)
	}
	if m.BoardID != boardID {
		return ErrMemberNotFound
	}
	if err := s.repo.RemoveMember(ctx, memberID); err != nil {
		return mapNotFound(err, ErrMemberNotFound)
	}
	s.publish(events.EventBoardChanged, boardID)
	return nil
}

// ListTags returns the fixed tag vocabulary
func (s *service) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.repo.GetTags(ctx)
}

func (s *service) publish(t events.EventType, boardID int) {
	events.Notify(s.eventClient, events.Event{Type: t, BoardID: boardID})
}

func validateBoardName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxBoardNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func validateMemberName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyMemberName
	}
	if utf8.RuneCountInString(name) > maxMemberNameLength {
		return "", ErrMemberNameTooLong
	}
	return name, nil
}

func mapNotFound(err, sentinel error) error {
	if errors.Is(err, database.ErrNotFound) {
		return sentinel
	}
	return err
}
