package database

// DataStore defines the unified interface for all data operations.
// Consumers can depend on the smaller interfaces (e.g., StoryRepository)
// for better testability and clearer dependencies.
type DataStore interface {
	BoardRepository
	MemberRepository
	TagRepository
	StoryRepository
	ActivityRepository
}
