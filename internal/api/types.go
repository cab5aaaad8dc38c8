package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Headers understood by the server
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderAuthor         = "X-Author"
)

// MemberRequest adds a member to a board
type MemberRequest struct {
	Name string `json:"name"`
}

// FieldsResponse lists the access level of every field of a story
type FieldsResponse struct {
	StoryID int                                `json:"story_id"`
	Status  models.Status                      `json:"status"`
	Fields  map[workflow.Field]workflow.Access `json:"fields"`
}

// Health is returned by /healthz
type Health struct {
	Status string `json:"status"`
}

// QueryValues encodes a story filter as URL query parameters
func QueryValues(q ranking.Query) url.Values {
	v := url.Values{}
	for _, t := range q.Tags {
		v.Add("tag", t)
	}
	if q.Assignee != "" {
		v.Set("assignee", q.Assignee)
	}
	if q.MoSCoW != "" {
		v.Set("moscow", string(q.MoSCoW))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	return v
}

// ParseQuery decodes story filter parameters. Tags may repeat or be
// comma-separated.
func ParseQuery(v url.Values) (ranking.Query, error) {
	var q ranking.Query
	for _, raw := range v["tag"] {
		for _, t := range strings.Split(raw, ",") {
			if strings.TrimSpace(t) == "" {
				continue
			}
			tag, err := models.NormalizeTag(t)
			if err != nil {
				return ranking.Query{}, err
			}
			q.Tags = append(q.Tags, tag)
		}
	}
	q.Assignee = strings.TrimSpace(v.Get("assignee"))
	if raw := v.Get("moscow"); raw != "" {
		m, err := models.ParseMoSCoW(raw)
		if err != nil {
			return ranking.Query{}, err
		}
		q.MoSCoW = m
	}
	if raw := v.Get("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return ranking.Query{}, err
		}
		q.Status = st
	}
	q.Text = v.Get("q")
	key, err := ranking.ParseSortKey(v.Get("sort"))
	if err != nil {
		return ranking.Query{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if v.Get("sort") != "" {
		q.Sort = key
	}
	return q, nil
}
