package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"trustline/internal/employee/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	employees map[id.EmployeeID]*models.Employee
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{employees: make(map[id.EmployeeID]*models.Employee)}
}

// Save inserts a new employee. A second profile for the same user or email
// is a conflict.
func (s *InMemoryStore) Save(ctx context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.employees {
		if existing.ID == e.ID || existing.UserID == e.UserID || strings.EqualFold(existing.Email, e.Email) {
			return sentinel.ErrConflict
		}
	}
	s.employees[e.ID] = clone(e)
	tx.OnRollback(ctx, func() { s.restore(e.ID, nil) })
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, employeeID id.EmployeeID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(e), nil
}

func (s *InMemoryStore) FindByUserID(_ context.Context, userID id.UserID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.UserID == userID {
			return clone(e), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Search returns employees matching q.Term, best score first.
func (s *InMemoryStore) Search(_ context.Context, q models.SearchQuery) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Employee, 0)
	for _, e := range s.employees {
		if q.ExposableOnly && !(e.ProfileVisible && e.ConsentGiven) {
			continue
		}
		if e.Matches(q.Term) {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b *models.Employee) int {
		if a.OverallScore != b.OverallScore {
			return b.OverallScore - a.OverallScore
		}
		return strings.Compare(a.FullName, b.FullName)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) UpdateScore(ctx context.Context, employeeID id.EmployeeID, u models.ScoreUpdate, now time.Time) error {
	return s.mutate(ctx, employeeID, now, func(e *models.Employee) {
		e.OverallScore = u.OverallScore
		e.TotalReviews = u.TotalReviews
	})
}

func (s *InMemoryStore) UpdateVerification(ctx context.Context, employeeID id.EmployeeID, u models.VerificationUpdate, now time.Time) error {
	return s.mutate(ctx, employeeID, now, func(e *models.Employee) {
		e.VerificationPercentage = u.Percentage
		e.Verified = u.Verified
	})
}

func (s *InMemoryStore) UpdateConsent(ctx context.Context, employeeID id.EmployeeID, u models.ConsentUpdate, now time.Time) error {
	return s.mutate(ctx, employeeID, now, func(e *models.Employee) {
		e.ConsentGiven = u.ConsentGiven
		e.ConsentGivenAt = u.ConsentGivenAt
		e.ProfileVisible = u.ProfileVisible
	})
}

func (s *InMemoryStore) mutate(ctx context.Context, employeeID id.EmployeeID, now time.Time, fn func(*models.Employee)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.employees[employeeID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e := clone(prev)
	fn(e)
	e.UpdatedAt = now
	s.employees[employeeID] = e
	tx.OnRollback(ctx, func() { s.restore(employeeID, prev) })
	return nil
}

func (s *InMemoryStore) restore(employeeID id.EmployeeID, prev *models.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.employees, employeeID)
		return
	}
	s.employees[employeeID] = prev
}

func clone(e *models.Employee) *models.Employee {
	c := *e
	c.Skills = slices.Clone(e.Skills)
	if e.ConsentGivenAt != nil {
		t := *e.ConsentGivenAt
		c.ConsentGivenAt = &t
	}
	return &c
}
