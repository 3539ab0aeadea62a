package store

import (
	"context"
	"slices"
	"sync"

	"trustline/internal/review/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	reviews map[id.ReviewID]*models.Review
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{reviews: make(map[id.ReviewID]*models.Review)}
}

func (s *InMemoryStore) Save(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.reviews[r.ID] = clone(r)
	tx.OnRollback(ctx, func() { s.restore(r.ID, nil) })
	return nil
}

func (s *InMemoryStore) Update(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists := s.reviews[r.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	s.reviews[r.ID] = clone(r)
	tx.OnRollback(ctx, func() { s.restore(r.ID, prev) })
	return nil
}

// restore puts prev back, or removes the review when prev is nil.
func (s *InMemoryStore) restore(reviewID id.ReviewID, prev *models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.reviews, reviewID)
		return
	}
	s.reviews[reviewID] = prev
}

// FindByID returns the review whether or not it is active.
func (s *InMemoryStore) FindByID(_ context.Context, reviewID id.ReviewID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemoryStore) ListActiveByEmployee(_ context.Context, employeeID id.EmployeeID) ([]*models.Review, error) {
	return s.listActive(func(r *models.Review) bool { return r.EmployeeID == employeeID }), nil
}

func (s *InMemoryStore) ListActiveByCompany(_ context.Context, companyID id.CompanyID) ([]*models.Review, error) {
	return s.listActive(func(r *models.Review) bool { return r.CompanyID == companyID }), nil
}

// listActive returns matching active reviews, newest first.
func (s *InMemoryStore) listActive(match func(*models.Review) bool) []*models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Review, 0)
	for _, r := range s.reviews {
		if r.IsActive && match(r) {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b *models.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func clone(r *models.Review) *models.Review {
	c := *r
	c.EditHistory = slices.Clone(r.EditHistory)
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
