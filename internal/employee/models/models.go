package models

import (
	"strings"
	"time"

	id "trustline/pkg/domain"
	strs "trustline/pkg/platform/strings"
	"trustline/pkg/platform/validation"
)

// Employee is a person being rated and verified. OverallScore, TotalReviews,
// VerificationPercentage and Verified are derived; they are written only by
// the dedicated store methods of their owners.
type Employee struct {
	ID                     id.EmployeeID `json:"id"`
	UserID                 id.UserID     `json:"-"`
	FullName               string        `json:"full_name"`
	Email                  string        `json:"email"`
	Headline               string        `json:"headline,omitempty"`
	Skills                 []string      `json:"skills"`
	OverallScore           int           `json:"overall_score"`
	TotalReviews           int           `json:"total_reviews"`
	VerificationPercentage int           `json:"verification_percentage"`
	Verified               bool          `json:"verified"`
	ProfileVisible         bool          `json:"profile_visible"`
	ConsentGiven           bool          `json:"consent_given"`
	ConsentGivenAt         *time.Time    `json:"consent_given_at,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

type RegisterRequest struct {
	FullName string   `json:"full_name" validate:"required,max=200"`
	Email    string   `json:"email" validate:"required,email,max=254"`
	Headline string   `json:"headline" validate:"max=200"`
	Skills   []string `json:"skills" validate:"max=50,dive,required,max=64"`
}

func (r *RegisterRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Headline = strings.TrimSpace(r.Headline)
	r.Skills = strs.DedupeFold(r.Skills)
	if r.Skills == nil {
		r.Skills = []string{}
	}
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct("invalid employee", r)
}

// NewEmployee builds a hidden, unconsented employee with zeroed derived
// fields.
func NewEmployee(userID id.UserID, req RegisterRequest, now time.Time) *Employee {
	return &Employee{
		ID:        id.NewEmployeeID(),
		UserID:    userID,
		FullName:  req.FullName,
		Email:     req.Email,
		Headline:  req.Headline,
		Skills:    req.Skills,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PublicProfile is what the discovery surface may show. It never includes
// contact details.
type PublicProfile struct {
	ID                     id.EmployeeID `json:"id"`
	FullName               string        `json:"full_name"`
	Headline               string        `json:"headline,omitempty"`
	Skills                 []string      `json:"skills"`
	OverallScore           int           `json:"overall_score"`
	TotalReviews           int           `json:"total_reviews"`
	VerificationPercentage int           `json:"verification_percentage"`
	Verified               bool          `json:"verified"`
}

func (e *Employee) Public() PublicProfile {
	skills := e.Skills
	if skills == nil {
		skills = []string{}
	}
	return PublicProfile{
		ID:                     e.ID,
		FullName:               e.FullName,
		Headline:               e.Headline,
		Skills:                 skills,
		OverallScore:           e.OverallScore,
		TotalReviews:           e.TotalReviews,
		VerificationPercentage: e.VerificationPercentage,
		Verified:               e.Verified,
	}
}

// Matches reports whether the employee matches a case-insensitive search
// term on name, headline or skills. An empty term matches everyone.
func (e *Employee) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.FullName), term) ||
		strings.Contains(strings.ToLower(e.Headline), term) {
		return true
	}
	for _, skill := range e.Skills {
		if strings.Contains(strings.ToLower(skill), term) {
			return true
		}
	}
	return false
}

// SearchQuery drives the discovery search. ExposableOnly keeps only visible,
// consented profiles and is applied before Limit.
type SearchQuery struct {
	Term          string
	Limit         int
	ExposableOnly bool
}

// ScoreUpdate carries the aggregator's output.
type ScoreUpdate struct {
	OverallScore int
	TotalReviews int
}

// VerificationUpdate carries the synchronizer's output.
type VerificationUpdate struct {
	Percentage int
	Verified   bool
}

// ConsentUpdate carries the visibility gate's output.
type ConsentUpdate struct {
	ConsentGiven   bool
	ConsentGivenAt *time.Time
	ProfileVisible bool
}
