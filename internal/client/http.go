package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// maximum error body read from a failed response
const maxErrorBody = 64 << 10

// HTTPClient talks to the storyboard REST API
type HTTPClient struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	author  string
}

var (
	_ API     = (*HTTPClient)(nil)
	_ Watcher = (*HTTPClient)(nil)
)

// HTTPOption configures an HTTPClient
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client for regular requests
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithTimeout bounds every non-streaming request
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithAuthor sends name as X-Author on every request
func WithAuthor(name string) HTTPOption {
	return func(c *HTTPClient) {
		c.author = name
	}
}

// NewHTTPClient creates a client for the API rooted at baseURL
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	// Streams stay open indefinitely, so they get no overall timeout
	c.stream = &http.Client{Transport: c.http.Transport}
	return c
}

// Health calls /healthz
func (c *HTTPClient) Health(ctx context.Context) error {
	var h api.Health
	return c.do(ctx, http.MethodGet, "/healthz", nil, &h, nil)
}

func (c *HTTPClient) GetBoard(ctx context.Context, boardID int) (*models.Board, error) {
	var b models.Board
	if err := c.do(ctx, http.MethodGet, boardPath(boardID, ""), nil, &b, nil); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *HTTPClient) ListMembers(ctx context.Context, boardID int) ([]*models.Member, error) {
	var members []*models.Member
	if err := c.do(ctx, http.MethodGet, boardPath(boardID, "/members"), nil, &members, nil); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *HTTPClient) ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error) {
	path := boardPath(boardID, "/stories")
	if v := api.QueryValues(q); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var stories []*models.Story
	if err := c.do(ctx, http.MethodGet, path, nil, &stories, nil); err != nil {
		return nil, err
	}
	if stories == nil {
		stories = []*models.Story{}
	}
	return stories, nil
}

func (c *HTTPClient) GetStory(ctx context.Context, storyID int) (*models.Story, error) {
	var st models.Story
	if err := c.do(ctx, http.MethodGet, storyPath(storyID, ""), nil, &st, nil); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) FieldAccess(ctx context.Context, storyID int) (map[workflow.Field]workflow.Access, error) {
	var resp api.FieldsResponse
	if err := c.do(ctx, http.MethodGet, storyPath(storyID, "/fields"), nil, &resp, nil); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

// CreateStory sends a fresh Idempotency-Key so a retried request is not applied twice
func (c *HTTPClient) CreateStory(ctx context.Context, req storyservice.CreateStoryRequest) (*models.Story, error) {
	var st models.Story
	headers := map[string]string{api.HeaderIdempotencyKey: uuid.NewString()}
	if err := c.do(ctx, http.MethodPost, boardPath(req.BoardID, "/stories"), req, &st, headers); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) UpdateStory(ctx context.Context, req storyservice.UpdateStoryRequest) (*models.Story, error) {
	var st models.Story
	if err := c.do(ctx, http.MethodPatch, storyPath(req.StoryID, ""), req, &st, nil); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) MoveStory(ctx context.Context, req storyservice.MoveStoryRequest) (*models.Story, error) {
	var st models.Story
	if err := c.do(ctx, http.MethodPost, storyPath(req.StoryID, "/move"), req, &st, nil); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) DeleteStory(ctx context.Context, storyID int) error {
	return c.do(ctx, http.MethodDelete, storyPath(storyID, ""), nil, nil, nil)
}

func (c *HTTPClient) AddComment(ctx context.Context, req storyservice.CommentRequest) (*models.Activity, error) {
	var a models.Activity
	if err := c.do(ctx, http.MethodPost, storyPath(req.StoryID, "/activity"), req, &a, nil); err != nil {
		return nil, err
	}
	return &a, nil
}

// Watch opens the board's event stream. Events are decoded from the
// "data:" lines; comments and heartbeats are skipped.
func (c *HTTPClient) Watch(ctx context.Context, boardID int) (<-chan events.Event, error) {
	req, err := c.newRequest(ctx, http.MethodGet, boardPath(boardID, "/stream"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError(resp)
	}

	out := make(chan events.Event)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := eventData(scanner.Text())
			if !ok {
				continue
			}
			var ev events.Event
			if err := sonic.UnmarshalString(data, &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// eventData returns the payload of an SSE "data:" line. One space after
// the colon is optional.
func eventData(line string) (string, bool) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(data, " "), true
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.author != "" {
		req.Header.Set(api.HeaderAuthor, c.author)
	}
	return req, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response into *api.Error
func decodeError(resp *http.Response) error {
	apiErr := &api.Error{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var body api.ErrorBody
		if sonic.Unmarshal(data, &body) == nil {
			apiErr.Detail = body.Error
		}
	}
	return apiErr
}

func boardPath(boardID int, suffix string) string {
	return "/api/boards/" + strconv.Itoa(boardID) + suffix
}

func storyPath(storyID int, suffix string) string {
	return "/api/stories/" + strconv.Itoa(storyID) + suffix
}
