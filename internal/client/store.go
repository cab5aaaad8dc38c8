package client

import (
	"sync"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
)

// Store is the normalized board state: stories by id plus the ordered ids
// of each status column. Readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	stories map[int]*models.Story
	columns map[models.Status][]int
	sortKey ranking.SortKey
	version uint64
	loads   uint64
}

// Snapshot is an opaque copy of a Store's contents
type Snapshot struct {
	stories map[int]*models.Story
	version uint64
}

// NewStore creates an empty store ordering columns by rank
func NewStore() *Store {
	return &Store{
		stories: make(map[int]*models.Story),
		columns: make(map[models.Status][]int),
		sortKey: ranking.SortRank,
	}
}

// Replace reconciles the store with a freshly fetched list. Stories absent
// from the list are dropped.
func (s *Store) Replace(stories []*models.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stories = make(map[int]*models.Story, len(stories))
	for _, st := range stories {
		s.stories[st.ID] = st.Clone()
	}
	s.loads++
	s.reindex()
}

// Upsert inserts or replaces one story
func (s *Store) Upsert(st *models.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stories[st.ID] = st.Clone()
	s.reindex()
}

// Remove drops a story; it reports whether the story was present
func (s *Store) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return false
	}
	delete(s.stories, id)
	s.reindex()
	return true
}

// SetSort changes the column ordering
func (s *Store) SetSort(key ranking.SortKey) {
	if key == "" {
		key = ranking.SortRank
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sortKey == key {
		return
	}
	s.sortKey = key
	s.reindex()
}

// Get returns a copy of a story
func (s *Store) Get(id int) (*models.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stories[id]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Column returns copies of the stories in status, in column order
func (s *Store) Column(status models.Status) []*models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.columns[status]
	out := make([]*models.Story, len(ids))
	for i, id := range ids {
		out[i] = s.stories[id].Clone()
	}
	return out
}

// Columns returns every status column in workflow order
func (s *Store) Columns() []ranking.Column {
	statuses := models.Statuses()
	cols := make([]ranking.Column, len(statuses))
	for i, st := range statuses {
		cols[i] = ranking.Column{Status: st, Title: st.Title(), Stories: s.Column(st)}
	}
	return cols
}

// Len returns the number of stories held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stories)
}

// Version increases on every mutation
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Loads counts the full reloads applied with Replace
func (s *Store) Loads() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Revert puts prev back in place of an optimistic change, unless a reload
// landed after loads was read: that reload already shows the backend's
// state. It reports whether prev was put back.
func (s *Store) Revert(prev *models.Story, loads uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loads != loads {
		return false
	}
	s.stories[prev.ID] = prev.Clone()
	s.reindex()
	return true
}

// Snapshot copies the current contents
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{stories: make(map[int]*models.Story, len(s.stories)), version: s.version}
	for id, st := range s.stories {
		snap.stories[id] = st.Clone()
	}
	return snap
}

// Restore puts back a snapshot taken earlier
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stories = make(map[int]*models.Story, len(snap.stories))
	for id, st := range snap.stories {
		s.stories[id] = st.Clone()
	}
	s.reindex()
}

// reindex rebuilds the column ids. Caller holds the write lock.
func (s *Store) reindex() {
	byStatus := make(map[models.Status][]*models.Story)
	for _, st := range s.stories {
		byStatus[st.Status] = append(byStatus[st.Status], st)
	}
	s.columns = make(map[models.Status][]int, len(byStatus))
	for status, list := range byStatus {
		sorted := ranking.Sort(list, s.sortKey)
		ids := make([]int, len(sorted))
		for i, st := range sorted {
			ids[i] = st.ID
		}
		s.columns[status] = ids
	}
	s.version++
}
