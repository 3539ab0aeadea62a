package models

import (
	"strings"
	"time"

	id "trustline/pkg/domain"
	"trustline/pkg/platform/validation"
)

// Company submits reviews. ReviewCount, AverageRating, ReputationScore and
// LastReviewAt mirror the active reviews it has submitted.
type Company struct {
	ID              id.CompanyID `json:"id"`
	OwnerUserID     id.UserID    `json:"-"`
	Name            string       `json:"name"`
	Verified        bool         `json:"verified"`
	ReviewCount     int          `json:"review_count"`
	AverageRating   float64      `json:"average_rating"`
	ReputationScore int          `json:"reputation_score"`
	LastReviewAt    *time.Time   `json:"last_review_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type RegisterRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct("invalid company", r)
}

func NewCompany(owner id.UserID, req RegisterRequest, now time.Time) *Company {
	return &Company{
		ID:          id.NewCompanyID(),
		OwnerUserID: owner,
		Name:        req.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StatsUpdate carries the aggregator's output for a company.
type StatsUpdate struct {
	ReviewCount     int
	AverageRating   float64
	ReputationScore int
	LastReviewAt    *time.Time
}
