package workflow

import (
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// Field names a story attribute whose visibility depends on status
type Field string

const (
	FieldTitle              Field = "title"
	FieldDescription        Field = "description"
	FieldTags               Field = "tags"
	FieldBusinessValue      Field = "business_value"
	FieldMoSCoW             Field = "moscow"
	FieldAcceptanceCriteria Field = "acceptance_criteria"
	FieldStoryPoints        Field = "story_points"
	FieldDependencies       Field = "dependencies"
	FieldAssignees          Field = "assignees"
	FieldProblemValidated   Field = "problem_validated"
	FieldCriteriaAgreed     Field = "criteria_agreed"
	FieldDevComplete        Field = "dev_complete"
	FieldQAPassed           Field = "qa_passed"
)

// Fields lists every status-driven field in form order
var Fields = []Field{
	FieldTitle,
	FieldDescription,
	FieldTags,
	FieldBusinessValue,
	FieldMoSCoW,
	FieldAcceptanceCriteria,
	FieldStoryPoints,
	FieldDependencies,
	FieldAssignees,
	FieldProblemValidated,
	FieldCriteriaAgreed,
	FieldDevComplete,
	FieldQAPassed,
}

// Access is the visibility of a field in a given status
type Access int

const (
	Hidden Access = iota
	ReadOnly
	Editable
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read_only"
	case Editable:
		return "editable"
	default:
		return "hidden"
	}
}

// MarshalText renders the access level by name in JSON and YAML
func (a Access) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an access level name
func (a *Access) UnmarshalText(b []byte) error {
	switch string(b) {
	case "hidden":
		*a = Hidden
	case "read_only":
		*a = ReadOnly
	case "editable":
		*a = Editable
	default:
		return fmt.Errorf("unknown access level %q", string(b))
	}
	return nil
}

// Visible reports whether the field is shown at all
func (a Access) Visible() bool {
	return a != Hidden
}

const (
	hd = Hidden
	ro = ReadOnly
	ed = Editable
)

// visibility is the state table: one row per status, one column per field in Fields order.
// Fields unlock as the story is refined and freeze once work has started on them.
var visibility = map[models.Status][]Access{
	//                       title desc tags bv  moscow ac  sp  deps assign pv  ca  dev qa
	models.StatusIdea:       {ed, ed, ed, ed, hd, hd, hd, hd, hd, ed, hd, hd, hd},
	models.StatusRefinement: {ed, ed, ed, ed, ed, ed, ed, ed, hd, ro, ed, hd, hd},
	models.StatusReady:      {ed, ed, ed, ed, ed, ed, ed, ed, ed, ro, ro, hd, hd},
	models.StatusInProgress: {ro, ed, ed, ro, ro, ro, ro, ed, ed, ro, ro, ed, hd},
	models.StatusReview:     {ro, ro, ed, ro, ro, ro, ro, ro, ed, ro, ro, ro, ed},
	models.StatusDone:       {ro, ro, ro, ro, ro, ro, ro, ro, ro, ro, ro, ro, ro},
}

// AccessFor returns the access level of field in status
func AccessFor(status models.Status, field Field) Access {
	row, ok := visibility[status]
	if !ok {
		return Hidden
	}
	for i, f := range Fields {
		if f == field {
			return row[i]
		}
	}
	return Hidden
}

// FieldAccess returns the full visibility map for a status
func FieldAccess(status models.Status) map[Field]Access {
	out := make(map[Field]Access, len(Fields))
	for _, f := range Fields {
		out[f] = AccessFor(status, f)
	}
	return out
}

// VisibleFields returns the fields shown in status, in form order
func VisibleFields(status models.Status) []Field {
	var out []Field
	for _, f := range Fields {
		if AccessFor(status, f).Visible() {
			out = append(out, f)
		}
	}
	return out
}

// LockedFieldError reports an attempt to change a field that is not editable
type LockedFieldError struct {
	Field  Field
	Status models.Status
	Access Access
}

func (e *LockedFieldError) Error() string {
	return fmt.Sprintf("field %s is %s while story is in %s", e.Field, e.Access, e.Status)
}

// Unwrap lets callers match with errors.Is(err, ErrFieldLocked)
func (e *LockedFieldError) Unwrap() error {
	return ErrFieldLocked
}

// RequireEditable returns a LockedFieldError unless every field is editable in status
func RequireEditable(status models.Status, fields ...Field) error {
	for _, f := range fields {
		if a := AccessFor(status, f); a != Editable {
			return &LockedFieldError{Field: f, Status: status, Access: a}
		}
	}
	return nil
}
