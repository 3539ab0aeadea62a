package store

import (
	"context"
	"sync"

	"trustline/internal/notification"
)

// DefaultLimit caps each recipient's inbox.
const DefaultLimit = 200

// InMemoryStore keeps the newest notifications per recipient.
type InMemoryStore struct {
	mu    sync.RWMutex
	limit int
	inbox map[string][]notification.Notification
}

func NewInMemory(limit int) *InMemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &InMemoryStore{limit: limit, inbox: make(map[string][]notification.Notification)}
}

func (s *InMemoryStore) Push(_ context.Context, n notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]notification.Notification{n}, s.inbox[n.Recipient]...)
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	s.inbox[n.Recipient] = list
	return nil
}

// List returns up to limit notifications, newest first.
func (s *InMemoryStore) List(_ context.Context, recipient string, limit int) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.inbox[recipient]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]notification.Notification, limit)
	copy(out, list[:limit])
	return out, nil
}
