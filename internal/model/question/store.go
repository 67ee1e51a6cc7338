package question

// Store exposes the frequent questions to the chat screen and the HTTP layer.
type Store interface {
	List() []Question
	FindByID(id string) (Question, bool)
}

// MemoryStore implements Store over a fixed slice.
type MemoryStore struct {
	items []Question
}

// NewMemoryStore returns a MemoryStore holding a copy of items.
func NewMemoryStore(items []Question) *MemoryStore {
	return &MemoryStore{items: append([]Question(nil), items...)}
}

// List returns the questions in display order.
func (s *MemoryStore) List() []Question {
	return append([]Question(nil), s.items...)
}

// FindByID looks up a question by identifier.
func (s *MemoryStore) FindByID(id string) (Question, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Question{}, false
}
