// Package api holds the wire contract shared by the HTTP server and the
// remote client: error codes, request and response bodies, and the mapping
// between service errors and HTTP statuses.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/thenoetrevino/storyboard/internal/models"
	boardservice "github.com/thenoetrevino/storyboard/internal/services/board"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Error codes carried in ErrorDetail.Code
const (
	CodeInvalidRequest    = "invalid_request"
	CodeBoardNotFound     = "board_not_found"
	CodeStoryNotFound     = "story_not_found"
	CodeMemberNotFound    = "member_not_found"
	CodeDependencyMissing = "dependency_not_found"
	CodeNotFound          = "not_found"
	CodeTransitionBlocked = "transition_blocked"
	CodeFieldLocked       = "field_locked"
	CodeSameStatus        = "same_status"
	CodeDuplicateMember   = "duplicate_member"
	CodeDuplicateDep      = "duplicate_dependency"
	CodeCircularDep       = "circular_dependency"
	CodeDuplicateRequest  = "duplicate_request"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeUnavailable       = "unavailable"
	CodeInternal          = "internal_error"
)

var (
	// ErrInvalidRequest is the client-side view of any 400 response
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDuplicateRequest indicates an Idempotency-Key that was already used
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrNotFound is the client-side view of a 404 without a known code
	ErrNotFound = errors.New("not found")

	// ErrServer is the client-side view of any 5xx response
	ErrServer = errors.New("server error")
)

// ErrorDetail is the body of every failed request
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	From    models.Status          `json:"from,omitempty"`
	To      models.Status          `json:"to,omitempty"`
	Status  models.Status          `json:"status,omitempty"`
	Unmet   []workflow.Requirement `json:"unmet,omitempty"`
	Field   workflow.Field         `json:"field,omitempty"`
	Access  string                 `json:"access,omitempty"`
}

// ErrorBody wraps ErrorDetail as {"error": {...}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type mapping struct {
	err    error
	status int
	code   string
}

// mappings is ordered: the first match wins when classifying, and every
// entry sharing a code is restored when decoding.
var mappings = []mapping{
	{storyservice.ErrStoryNotFound, http.StatusNotFound, CodeStoryNotFound},
	{storyservice.ErrBoardNotFound, http.StatusNotFound, CodeBoardNotFound},
	{boardservice.ErrBoardNotFound, http.StatusNotFound, CodeBoardNotFound},
	{boardservice.ErrMemberNotFound, http.StatusNotFound, CodeMemberNotFound},
	{storyservice.ErrDependencyNotFound, http.StatusNotFound, CodeDependencyMissing},

	{workflow.ErrTransitionBlocked, http.StatusConflict, CodeTransitionBlocked},
	{workflow.ErrFieldLocked, http.StatusConflict, CodeFieldLocked},
	{workflow.ErrSameStatus, http.StatusConflict, CodeSameStatus},
	{boardservice.ErrDuplicateMember, http.StatusConflict, CodeDuplicateMember},
	{storyservice.ErrDuplicateDependency, http.StatusConflict, CodeDuplicateDep},
	{storyservice.ErrCircularDependency, http.StatusConflict, CodeCircularDep},
	{ErrDuplicateRequest, http.StatusConflict, CodeDuplicateRequest},
}

var validationErrors = []error{
	models.ErrInvalidStatus,
	models.ErrInvalidMoSCoW,
	models.ErrUnknownTag,
	ErrInvalidRequest,

	boardservice.ErrEmptyName,
	boardservice.ErrNameTooLong,
	boardservice.ErrInvalidBoardID,
	boardservice.ErrEmptyMemberName,
	boardservice.ErrMemberNameTooLong,
	boardservice.ErrInvalidMemberID,

	storyservice.ErrEmptyTitle,
	storyservice.ErrTitleTooLong,
	storyservice.ErrInvalidStoryID,
	storyservice.ErrInvalidBoardID,
	storyservice.ErrInvalidBusinessValue,
	storyservice.ErrInvalidStoryPoints,
	storyservice.ErrTooManyCriteria,
	storyservice.ErrEmptyCriterion,
	storyservice.ErrUnknownAssignee,
	storyservice.ErrEmptyCommentMessage,
	storyservice.ErrCommentMessageTooLong,
	storyservice.ErrSelfDependency,
	storyservice.ErrCrossBoardDependency,
}

// Classify maps a service error to an HTTP status and wire body.
// Unknown errors become 500 with a generic message.
func Classify(err error) (int, ErrorDetail) {
	var gate *workflow.GateError
	if errors.As(err, &gate) {
		return http.StatusConflict, ErrorDetail{
			Code:    CodeTransitionBlocked,
			Message: err.Error(),
			From:    gate.From,
			To:      gate.To,
			Unmet:   gate.Unmet,
		}
	}
	var locked *workflow.LockedFieldError
	if errors.As(err, &locked) {
		return http.StatusConflict, ErrorDetail{
			Code:    CodeFieldLocked,
			Message: err.Error(),
			Status:  locked.Status,
			Field:   locked.Field,
			Access:  locked.Access.String(),
		}
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, ErrorDetail{Code: m.code, Message: err.Error()}
		}
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, ErrorDetail{Code: CodeInvalidRequest, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, ErrorDetail{Code: CodeInternal, Message: "internal server error"}
}

// Error is a failed API call as seen by a client. It unwraps to the
// service sentinels matching its code so callers can use errors.Is and
// errors.As exactly as with an in-process service.
type Error struct {
	StatusCode int
	Detail     ErrorDetail
}

func (e *Error) Error() string {
	if e.Detail.Message != "" {
		return e.Detail.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Unwrap restores the typed and sentinel errors behind the code
func (e *Error) Unwrap() []error {
	switch e.Detail.Code {
	case CodeTransitionBlocked:
		return []error{&workflow.GateError{From: e.Detail.From, To: e.Detail.To, Unmet: e.Detail.Unmet}}
	case CodeFieldLocked:
		var access workflow.Access
		_ = access.UnmarshalText([]byte(e.Detail.Access))
		return []error{&workflow.LockedFieldError{Field: e.Detail.Field, Status: e.Detail.Status, Access: access}}
	}

	var out []error
	for _, m := range mappings {
		if m.code == e.Detail.Code {
			out = append(out, m.err)
		}
	}
	switch {
	case len(out) > 0:
	case e.StatusCode == http.StatusBadRequest:
		out = append(out, ErrInvalidRequest)
	case e.StatusCode == http.StatusNotFound:
		out = append(out, ErrNotFound)
	case e.StatusCode >= http.StatusInternalServerError:
		out = append(out, ErrServer)
	}
	return out
}
