package store

import (
	"context"
	"slices"
	"sync"

	"trustline/internal/document/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

// InMemoryStore keeps documents in a map. Records are copied on the way in
// and out so callers never share state with the store.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{documents: make(map[id.DocumentID]*models.Document)}
}

func (s *InMemoryStore) Save(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.documents[doc.ID] = clone(doc)
	tx.OnRollback(ctx, func() { s.restore(doc.ID, nil) })
	return nil
}

func (s *InMemoryStore) Update(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists := s.documents[doc.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	s.documents[doc.ID] = clone(doc)
	tx.OnRollback(ctx, func() { s.restore(doc.ID, prev) })
	return nil
}

func (s *InMemoryStore) restore(documentID id.DocumentID, prev *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.documents, documentID)
		return
	}
	s.documents[documentID] = prev
}

func (s *InMemoryStore) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(doc), nil
}

// ListActiveByEmployee returns active documents, newest first.
func (s *InMemoryStore) ListActiveByEmployee(_ context.Context, employeeID id.EmployeeID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0)
	for _, doc := range s.documents {
		if doc.EmployeeID == employeeID && doc.IsActive {
			out = append(out, clone(doc))
		}
	}
	slices.SortFunc(out, func(a, b *models.Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// CountActive returns the number of active documents and how many of them
// are verified.
func (s *InMemoryStore) CountActive(_ context.Context, employeeID id.EmployeeID) (total, verified int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.EmployeeID != employeeID || !doc.IsActive {
			continue
		}
		total++
		if doc.VerificationStatus == models.StatusVerified {
			verified++
		}
	}
	return total, verified, nil
}

func clone(doc *models.Document) *models.Document {
	c := *doc
	if doc.File != nil {
		f := *doc.File
		c.File = &f
	}
	if doc.AutoVerification != nil {
		av := *doc.AutoVerification
		av.Checks = slices.Clone(doc.AutoVerification.Checks)
		c.AutoVerification = &av
	}
	return &c
}
