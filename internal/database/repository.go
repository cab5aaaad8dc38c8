package database

import "database/sql"

// Repository provides a unified interface to all data operations.
// It composes domain-specific repositories using struct embedding.
type Repository struct {
	*BoardRepo
	*MemberRepo
	*TagRepo
	*StoryRepo
	*ActivityRepo
}

var _ DataStore = (*Repository)(nil)

// NewRepository creates a new Repository instance wrapping the given database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		BoardRepo:    &BoardRepo{db: db},
		MemberRepo:   &MemberRepo{db: db},
		TagRepo:      &TagRepo{db: db},
		StoryRepo:    &StoryRepo{db: db},
		ActivityRepo: &ActivityRepo{db: db},
	}
}
