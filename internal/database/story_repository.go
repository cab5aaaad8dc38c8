package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// StoryRepo handles stories and their owned sets: assignees, tags,
// acceptance criteria and dependencies.
type StoryRepo struct {
	db *sql.DB
}

const storyColumns = `id, board_id, title, description, status, business_value, story_points, moscow,
	problem_validated, criteria_agreed, dev_complete, qa_passed, created_at, updated_at`

// CreateStory inserts a story together with its sets and returns the stored copy
func (r *StoryRepo) CreateStory(ctx context.Context, s *models.Story) (*models.Story, error) {
	var storyID int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		status := s.Status
		if status == "" {
			status = models.StatusIdea
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO stories (board_id, title, description, status, business_value, story_points, moscow,
				problem_validated, criteria_agreed, dev_complete, qa_passed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.BoardID, s.Title, s.Description, string(status),
			ptrToNullInt64(s.BusinessValue), ptrToNullInt64(s.StoryPoints), string(s.MoSCoW),
			s.Checklist.ProblemValidated, s.Checklist.CriteriaAgreed, s.Checklist.DevComplete, s.Checklist.QAPassed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert story '%s': %w", s.Title, err)
		}
		if storyID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get story ID after insert: %w", err)
		}

		if err := replaceStorySets(ctx, tx, int(storyID), s); err != nil {
			return err
		}
		for _, dep := range s.DependsOn {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO story_dependencies (story_id, depends_on_id) VALUES (?, ?)`,
				storyID, dep,
			); err != nil {
				return fmt.Errorf("failed to add dependency %d for story %d: %w", dep, storyID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetStoryByID(ctx, int(storyID))
}

// GetStoryByID loads a story with all of its sets
func (r *StoryRepo) GetStoryByID(ctx context.Context, id int) (*models.Story, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)
	s, err := scanStory(row)
	if err != nil {
		return nil, notFound(err, "story", id)
	}
	byID := map[int]*models.Story{s.ID: s}
	if err := attachSets(ctx, r.db, byID, "?", id); err != nil {
		return nil, err
	}
	return s, nil
}

// GetStoriesByBoard loads every story of a board ordered by id
func (r *StoryRepo) GetStoriesByBoard(ctx context.Context, boardID int) ([]*models.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE board_id = ? ORDER BY id`, boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories for board %d: %w", boardID, err)
	}

	stories := make([]*models.Story, 0)
	byID := make(map[int]*models.Story)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, s)
		byID[s.ID] = s
	}
	err = rows.Err()
	// release the connection before loading the sets
	closeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating story rows: %w", err)
	}

	if len(stories) == 0 {
		return stories, nil
	}
	if err := attachSets(ctx, r.db, byID, "SELECT id FROM stories WHERE board_id = ?", boardID); err != nil {
		return nil, err
	}
	return stories, nil
}

// UpdateStory overwrites the scalar fields, assignees, tags and criteria of a story.
// Status, checklist and dependencies have their own writers.
func (r *StoryRepo) UpdateStory(ctx context.Context, s *models.Story) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE stories
			 SET title = ?, description = ?, business_value = ?, story_points = ?, moscow = ?,
			     problem_validated = ?, criteria_agreed = ?, dev_complete = ?, qa_passed = ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			s.Title, s.Description, ptrToNullInt64(s.BusinessValue), ptrToNullInt64(s.StoryPoints), string(s.MoSCoW),
			s.Checklist.ProblemValidated, s.Checklist.CriteriaAgreed, s.Checklist.DevComplete, s.Checklist.QAPassed,
			s.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update story %d: %w", s.ID, err)
		}
		if err := requireAffected(res, "story", s.ID); err != nil {
			return err
		}
		return replaceStorySets(ctx, tx, s.ID, s)
	})
}

// UpdateStoryStatus writes a new status together with the (possibly reset) checklist
func (r *StoryRepo) UpdateStoryStatus(ctx context.Context, id int, status models.Status, checklist models.Checklist) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stories
		 SET status = ?, problem_validated = ?, criteria_agreed = ?, dev_complete = ?, qa_passed = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		string(status), checklist.ProblemValidated, checklist.CriteriaAgreed, checklist.DevComplete, checklist.QAPassed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to move story %d to %s: %w", id, status, err)
	}
	return requireAffected(res, "story", id)
}

// DeleteStory removes a story; its sets, dependency edges and activity cascade away
func (r *StoryRepo) DeleteStory(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story %d: %w", id, err)
	}
	return requireAffected(res, "story", id)
}

// AddDependency records that storyID depends on dependsOnID
func (r *StoryRepo) AddDependency(ctx context.Context, storyID, dependsOnID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO story_dependencies (story_id, depends_on_id) VALUES (?, ?)`,
		storyID, dependsOnID,
	)
	if err != nil {
		return fmt.Errorf("failed to add dependency %d -> %d: %w", storyID, dependsOnID, err)
	}
	return nil
}

// RemoveDependency deletes a dependency edge
func (r *StoryRepo) RemoveDependency(ctx context.Context, storyID, dependsOnID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM story_dependencies WHERE story_id = ? AND depends_on_id = ?`,
		storyID, dependsOnID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove dependency %d -> %d: %w", storyID, dependsOnID, err)
	}
	return requireAffected(res, "dependency of story", storyID)
}

// GetDependencyGraph returns story id -> ids it depends on, for one board
func (r *StoryRepo) GetDependencyGraph(ctx context.Context, boardID int) (map[int][]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.story_id, d.depends_on_id
		 FROM story_dependencies d
		 JOIN stories s ON s.id = d.story_id
		 WHERE s.board_id = ?
		 ORDER BY d.story_id, d.depends_on_id`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies for board %d: %w", boardID, err)
	}
	defer closeRows(rows)

	graph := make(map[int][]int)
	for rows.Next() {
		var from, to int
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan dependency row: %w", err)
		}
		graph[from] = append(graph[from], to)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependency rows: %w", err)
	}
	return graph, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*models.Story, error) {
	s := &models.Story{}
	var status, moscow string
	var bv, sp sql.NullInt64
	err := row.Scan(
		&s.ID, &s.BoardID, &s.Title, &s.Description, &status, &bv, &sp, &moscow,
		&s.Checklist.ProblemValidated, &s.Checklist.CriteriaAgreed, &s.Checklist.DevComplete, &s.Checklist.QAPassed,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.Status(status)
	s.MoSCoW = models.MoSCoW(moscow)
	s.BusinessValue = nullInt64ToPtr(bv)
	s.StoryPoints = nullInt64ToPtr(sp)
	s.Assignees = []string{}
	s.Tags = []string{}
	s.AcceptanceCriteria = []string{}
	s.DependsOn = []int{}
	s.Blocks = []int{}
	return s, nil
}

// replaceStorySets rewrites assignees, tags and acceptance criteria.
// Assignees are resolved by name against the story's board members.
func replaceStorySets(ctx context.Context, tx *sql.Tx, storyID int, s *models.Story) error {
	for _, table := range []string{"story_assignees", "story_tags", "acceptance_criteria"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE story_id = ?`, storyID); err != nil {
			return fmt.Errorf("failed to clear %s for story %d: %w", table, storyID, err)
		}
	}

	for _, name := range s.Assignees {
		var memberID int
		err := tx.QueryRowContext(ctx,
			`SELECT m.id FROM members m JOIN stories s ON s.board_id = m.board_id
			 WHERE s.id = ? AND m.name = ?`,
			storyID, name,
		).Scan(&memberID)
		if err != nil {
			return fmt.Errorf("member %q on the board of story %d: %w", name, storyID, notFoundErr(err))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO story_assignees (story_id, member_id) VALUES (?, ?)`,
			storyID, memberID,
		); err != nil {
			return fmt.Errorf("failed to assign %q to story %d: %w", name, storyID, err)
		}
	}

	for _, tag := range s.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO story_tags (story_id, tag) VALUES (?, ?)`,
			storyID, tag,
		); err != nil {
			return fmt.Errorf("failed to tag story %d with %q: %w", storyID, tag, err)
		}
	}

	for i, text := range s.AcceptanceCriteria {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO acceptance_criteria (story_id, position, text) VALUES (?, ?, ?)`,
			storyID, i, text,
		); err != nil {
			return fmt.Errorf("failed to add acceptance criterion %d to story %d: %w", i, storyID, err)
		}
	}
	return nil
}

// attachSets fills the set fields of the given stories. scope is a SQL
// expression yielding the story ids, bound to arg.
func attachSets(ctx context.Context, q querier, byID map[int]*models.Story, scope string, arg any) error {
	err := eachPair(ctx, q,
		`SELECT sa.story_id, m.name FROM story_assignees sa JOIN members m ON m.id = sa.member_id
		 WHERE sa.story_id IN (`+scope+`) ORDER BY sa.story_id, m.name`, arg,
		func(id int, v string) {
			if s, ok := byID[id]; ok {
				s.Assignees = append(s.Assignees, v)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to load assignees: %w", err)
	}

	err = eachPair(ctx, q,
		`SELECT st.story_id, st.tag FROM story_tags st JOIN tags t ON t.name = st.tag
		 WHERE st.story_id IN (`+scope+`) ORDER BY st.story_id, t.position`, arg,
		func(id int, v string) {
			if s, ok := byID[id]; ok {
				s.Tags = append(s.Tags, v)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}

	err = eachPair(ctx, q,
		`SELECT story_id, text FROM acceptance_criteria
		 WHERE story_id IN (`+scope+`) ORDER BY story_id, position`, arg,
		func(id int, v string) {
			if s, ok := byID[id]; ok {
				s.AcceptanceCriteria = append(s.AcceptanceCriteria, v)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to load acceptance criteria: %w", err)
	}

	err = eachEdge(ctx, q,
		`SELECT story_id, depends_on_id FROM story_dependencies
		 WHERE story_id IN (`+scope+`) ORDER BY story_id, depends_on_id`, arg,
		func(from, to int) {
			if s, ok := byID[from]; ok {
				s.DependsOn = append(s.DependsOn, to)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to load dependencies: %w", err)
	}

	err = eachEdge(ctx, q,
		`SELECT story_id, depends_on_id FROM story_dependencies
		 WHERE depends_on_id IN (`+scope+`) ORDER BY depends_on_id, story_id`, arg,
		func(from, to int) {
			if s, ok := byID[to]; ok {
				s.Blocks = append(s.Blocks, from)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to load blockers: %w", err)
	}
	return nil
}

func eachPair(ctx context.Context, q querier, query string, arg any, fn func(int, string)) error {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer closeRows(rows)
	for rows.Next() {
		var id int
		var v string
		if err := rows.Scan(&id, &v); err != nil {
			return err
		}
		fn(id, v)
	}
	return rows.Err()
}

func eachEdge(ctx context.Context, q querier, query string, arg any, fn func(int, int)) error {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer closeRows(rows)
	for rows.Next() {
		var from, to int
		if err := rows.Scan(&from, &to); err != nil {
			return err
		}
		fn(from, to)
	}
	return rows.Err()
}
