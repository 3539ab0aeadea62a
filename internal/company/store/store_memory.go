package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"trustline/internal/company/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	companies map[id.CompanyID]*models.Company
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{companies: make(map[id.CompanyID]*models.Company)}
}

// Save inserts a company; names are unique case-insensitively.
func (s *InMemoryStore) Save(ctx context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if existing.ID == c.ID || strings.EqualFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.companies[c.ID] = clone(c)
	tx.OnRollback(ctx, func() { s.restore(c.ID, nil) })
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) UpdateStats(ctx context.Context, companyID id.CompanyID, u models.StatsUpdate, now time.Time) error {
	return s.mutate(ctx, companyID, now, func(c *models.Company) {
		c.ReviewCount = u.ReviewCount
		c.AverageRating = u.AverageRating
		c.ReputationScore = u.ReputationScore
		c.LastReviewAt = u.LastReviewAt
	})
}

func (s *InMemoryStore) SetVerified(ctx context.Context, companyID id.CompanyID, verified bool, now time.Time) error {
	return s.mutate(ctx, companyID, now, func(c *models.Company) {
		c.Verified = verified
	})
}

func (s *InMemoryStore) mutate(ctx context.Context, companyID id.CompanyID, now time.Time, fn func(*models.Company)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.companies[companyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c := clone(prev)
	fn(c)
	c.UpdatedAt = now
	s.companies[companyID] = c
	tx.OnRollback(ctx, func() { s.restore(companyID, prev) })
	return nil
}

func (s *InMemoryStore) restore(companyID id.CompanyID, prev *models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.companies, companyID)
		return
	}
	s.companies[companyID] = prev
}

func clone(c *models.Company) *models.Company {
	out := *c
	if c.LastReviewAt != nil {
		t := *c.LastReviewAt
		out.LastReviewAt = &t
	}
	return &out
}
