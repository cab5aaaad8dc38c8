// Package export converts a board snapshot into the Taiga project-import
// JSON format.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
)

// Taiga role every exported member is attached to
const teamRole = "Team"

// Custom attribute names carried on every exported user story
const (
	AttrBusinessValue = "Business Value"
	AttrMoSCoW        = "MoSCoW"
	AttrMVPScore      = "MVP Score"
)

const taigaTime = "2006-01-02T15:04:05.000Z"

// Project is the root of a Taiga import document
type Project struct {
	Name               string            `json:"name"`
	Slug               string            `json:"slug"`
	Description        string            `json:"description"`
	CreatedDate        string            `json:"created_date"`
	ModifiedDate       string            `json:"modified_date"`
	IsBacklogActivated bool              `json:"is_backlog_activated"`
	IsKanbanActivated  bool              `json:"is_kanban_activated"`
	IsIssuesActivated  bool              `json:"is_issues_activated"`
	IsWikiActivated    bool              `json:"is_wiki_activated"`
	DefaultUSStatus    string            `json:"default_us_status"`
	DefaultPoints      string            `json:"default_points"`
	Roles              []Role            `json:"roles"`
	Memberships        []Membership      `json:"memberships"`
	Points             []Point           `json:"points"`
	USStatuses         []USStatus        `json:"us_statuses"`
	TagsColors         [][2]string       `json:"tags_colors"`
	CustomAttributes   []CustomAttribute `json:"userstorycustomattributes"`
	UserStories        []UserStory       `json:"user_stories"`
}

type Role struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Order       int      `json:"order"`
	Computable  bool     `json:"computable"`
	Permissions []string `json:"permissions"`
}

type Membership struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}

type Point struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
	Value *int   `json:"value"`
}

type USStatus struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Order      int    `json:"order"`
	IsClosed   bool   `json:"is_closed"`
	IsArchived bool   `json:"is_archived"`
	Color      string `json:"color"`
	WIPLimit   *int   `json:"wip_limit"`
}

type CustomAttribute struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Order       int    `json:"order"`
}

type RolePoints struct {
	Role   string `json:"role"`
	Points string `json:"points"`
}

type UserStory struct {
	Ref                    int               `json:"ref"`
	Subject                string            `json:"subject"`
	Description            string            `json:"description"`
	Status                 string            `json:"status"`
	Tags                   []string          `json:"tags"`
	Owner                  string            `json:"owner"`
	AssignedTo             string            `json:"assigned_to"`
	AssignedUsers          []string          `json:"assigned_users"`
	RolePoints             []RolePoints      `json:"role_points"`
	CustomAttributesValues map[string]string `json:"custom_attributes_values"`
	KanbanOrder            int               `json:"kanban_order"`
	BacklogOrder           int               `json:"backlog_order"`
	IsClosed               bool              `json:"is_closed"`
	CreatedDate            string            `json:"created_date"`
	ModifiedDate           string            `json:"modified_date"`
	FinishDate             string            `json:"finish_date,omitempty"`
	Watchers               []string          `json:"watchers"`
}

// Options tunes the transform
type Options struct {
	// EmailDomain builds member emails as <slug>@<domain>; Taiga keys users by email
	EmailDomain string
	// Owner is the email used as story owner; defaults to the first member
	Owner string
}

var statusColors = map[models.Status]string{
	models.StatusIdea:       "#999999",
	models.StatusRefinement: "#A855F7",
	models.StatusReady:      "#3B82F6",
	models.StatusInProgress: "#F97316",
	models.StatusReview:     "#EAB308",
	models.StatusDone:       "#22C55E",
}

// Build transforms a board snapshot. Stories are written in rank order
// within each status; refs follow story ids.
func Build(board *models.Board, members []*models.Member, stories []*models.Story, opts Options) *Project {
	domain := opts.EmailDomain
	if domain == "" {
		domain = "storyboard.local"
	}
	emails := make(map[string]string, len(members))
	memberships := make([]Membership, 0, len(members))
	for _, m := range members {
		email := memberEmail(m.Name, domain)
		emails[m.Name] = email
		memberships = append(memberships, Membership{
			Email:    email,
			FullName: m.Name,
			Role:     teamRole,
		})
	}
	owner := opts.Owner
	if owner == "" && len(memberships) > 0 {
		owner = memberships[0].Email
	}

	p := &Project{
		Name:              board.Name,
		Slug:              Slugify(board.Name),
		Description:       board.Description,
		CreatedDate:       formatTime(board.CreatedAt),
		ModifiedDate:      formatTime(board.UpdatedAt),
		IsKanbanActivated: true,
		DefaultUSStatus:   models.StatusIdea.Title(),
		DefaultPoints:     "?",
		Roles: []Role{{
			Name:        teamRole,
			Slug:        Slugify(teamRole),
			Order:       10,
			Computable:  true,
			Permissions: []string{"view_project", "view_us", "add_us", "modify_us", "delete_us", "comment_us"},
		}},
		Memberships: memberships,
		Points:      points(),
		USStatuses:  usStatuses(),
		TagsColors:  tagsColors(),
		CustomAttributes: []CustomAttribute{
			{Name: AttrBusinessValue, Description: "Business value from 1 to 100", Type: "number", Order: 1},
			{Name: AttrMoSCoW, Description: "MoSCoW priority", Type: "text", Order: 2},
			{Name: AttrMVPScore, Description: "Business value per story point", Type: "number", Order: 3},
		},
	}

	refs := make(map[int]int, len(stories))
	for i, s := range ranking.Sort(stories, ranking.SortCreated) {
		refs[s.ID] = i + 1
	}

	p.UserStories = make([]UserStory, 0, len(stories))
	backlog := 0
	for _, col := range ranking.Columns(stories) {
		for order, s := range col.Stories {
			backlog++
			p.UserStories = append(p.UserStories, userStory(s, refs[s.ID], order+1, backlog, owner, emails))
		}
	}
	return p
}

func userStory(s *models.Story, ref, kanbanOrder, backlogOrder int, owner string, emails map[string]string) UserStory {
	assigned := make([]string, 0, len(s.Assignees))
	for _, name := range s.Assignees {
		if email, ok := emails[name]; ok {
			assigned = append(assigned, email)
		}
	}
	assignedTo := ""
	if len(assigned) > 0 {
		assignedTo = assigned[0]
	}

	pts := "?"
	if s.StoryPoints != nil {
		pts = strconv.Itoa(*s.StoryPoints)
	}

	attrs := map[string]string{
		AttrMoSCoW:   s.MoSCoW.Label(),
		AttrMVPScore: strconv.FormatFloat(ranking.MVPScore(s), 'f', 2, 64),
	}
	if s.BusinessValue != nil {
		attrs[AttrBusinessValue] = strconv.Itoa(*s.BusinessValue)
	}

	us := UserStory{
		Ref:                    ref,
		Subject:                s.Title,
		Description:            storyDescription(s),
		Status:                 s.Status.Title(),
		Tags:                   append([]string{}, s.Tags...),
		Owner:                  owner,
		AssignedTo:             assignedTo,
		AssignedUsers:          assigned,
		RolePoints:             []RolePoints{{Role: teamRole, Points: pts}},
		CustomAttributesValues: attrs,
		KanbanOrder:            kanbanOrder,
		BacklogOrder:           backlogOrder,
		IsClosed:               s.Status == models.StatusDone,
		CreatedDate:            formatTime(s.CreatedAt),
		ModifiedDate:           formatTime(s.UpdatedAt),
		Watchers:               []string{},
	}
	if us.IsClosed {
		us.FinishDate = formatTime(s.UpdatedAt)
	}
	return us
}

// storyDescription appends the acceptance criteria as a markdown checklist.
// Criteria are ticked once the story is done.
func storyDescription(s *models.Story) string {
	if len(s.AcceptanceCriteria) == 0 {
		return s.Description
	}
	var b strings.Builder
	if s.Description != "" {
		b.WriteString(strings.TrimRight(s.Description, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("### Acceptance Criteria\n")
	mark := "[ ]"
	if s.Status == models.StatusDone {
		mark = "[x]"
	}
	for _, c := range s.AcceptanceCriteria {
		fmt.Fprintf(&b, "- %s %s\n", mark, c)
	}
	return b.String()
}

func points() []Point {
	out := []Point{{Name: "?", Order: 1}}
	for i, v := range models.StoryPointScale {
		out = append(out, Point{Name: strconv.Itoa(v), Order: i + 2, Value: &v})
	}
	return out
}

func usStatuses() []USStatus {
	statuses := models.Statuses()
	out := make([]USStatus, len(statuses))
	for i, st := range statuses {
		out[i] = USStatus{
			Name:     st.Title(),
			Slug:     Slugify(st.Title()),
			Order:    i + 1,
			IsClosed: st == models.StatusDone,
			Color:    statusColors[st],
		}
	}
	return out
}

func tagsColors() [][2]string {
	out := make([][2]string, len(models.TagVocabulary))
	for i, t := range models.TagVocabulary {
		out[i] = [2]string{t.Name, t.Color}
	}
	return out
}

func memberEmail(name, domain string) string {
	local := Slugify(name)
	if local == "" {
		local = "member"
	}
	return local + "@" + domain
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(taigaTime)
}

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
