package models

import (
	"slices"
	"strings"
	"time"

	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/validation"
)

// DefaultReviewWindow is how long after employment ends a company may still
// submit a review.
const DefaultReviewWindow = 15 * 24 * time.Hour

// MinCommentLength is counted in characters after trimming.
const MinCommentLength = 50

// Ratings holds the eight rated parameters, each in [1,10].
type Ratings struct {
	TechnicalSkills int `json:"technical_skills" validate:"gte=1,lte=10"`
	Communication   int `json:"communication" validate:"gte=1,lte=10"`
	Teamwork        int `json:"teamwork" validate:"gte=1,lte=10"`
	ProblemSolving  int `json:"problem_solving" validate:"gte=1,lte=10"`
	Punctuality     int `json:"punctuality" validate:"gte=1,lte=10"`
	Leadership      int `json:"leadership" validate:"gte=1,lte=10"`
	Integrity       int `json:"integrity" validate:"gte=1,lte=10"`
	WorkQuality     int `json:"work_quality" validate:"gte=1,lte=10"`
}

// ParameterNames lists the rated parameters in Values order.
var ParameterNames = [8]string{
	"technical_skills",
	"communication",
	"teamwork",
	"problem_solving",
	"punctuality",
	"leadership",
	"integrity",
	"work_quality",
}

func (r Ratings) Values() [8]int {
	return [8]int{
		r.TechnicalSkills,
		r.Communication,
		r.Teamwork,
		r.ProblemSolving,
		r.Punctuality,
		r.Leadership,
		r.Integrity,
		r.WorkQuality,
	}
}

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

type EmploymentDetails struct {
	Designation    string         `json:"designation" validate:"required,max=120"`
	Department     string         `json:"department,omitempty" validate:"max=120"`
	StartDate      time.Time      `json:"start_date" validate:"required"`
	EndDate        time.Time      `json:"end_date" validate:"required"`
	EmploymentType EmploymentType `json:"employment_type" validate:"required,oneof=full_time part_time contract internship"`
}

// EditEntry is an immutable snapshot taken before a review is changed.
type EditEntry struct {
	EditedAt        time.Time `json:"edited_at"`
	PreviousRatings Ratings   `json:"previous_ratings"`
	PreviousComment string    `json:"previous_comment"`
	EditedBy        id.UserID `json:"edited_by"`
}

// Review is one company's rating of one former employee.
type Review struct {
	ID            id.ReviewID       `json:"id"`
	CompanyID     id.CompanyID      `json:"company_id"`
	EmployeeID    id.EmployeeID     `json:"employee_id"`
	Ratings       Ratings           `json:"ratings"`
	AverageRating float64           `json:"average_rating"`
	Employment    EmploymentDetails `json:"employment_details"`
	Comment       string            `json:"comment"`
	WouldRehire   bool              `json:"would_rehire"`
	IsActive      bool              `json:"is_active"`
	DeletedAt     *time.Time        `json:"deleted_at,omitempty"`
	EditHistory   []EditEntry       `json:"edit_history"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type CreateRequest struct {
	EmployeeID  id.EmployeeID     `json:"employee_id"`
	Ratings     Ratings           `json:"ratings"`
	Employment  EmploymentDetails `json:"employment_details"`
	Comment     string            `json:"comment" validate:"min=50,max=5000"`
	WouldRehire bool              `json:"would_rehire"`
}

func (r *CreateRequest) Normalize() {
	r.Comment = strings.TrimSpace(r.Comment)
	r.Employment.Designation = strings.TrimSpace(r.Employment.Designation)
	r.Employment.Department = strings.TrimSpace(r.Employment.Department)
	r.Employment.EmploymentType = EmploymentType(strings.ToLower(strings.TrimSpace(string(r.Employment.EmploymentType))))
}

// CheckWindow enforces the temporal integrity rule. It is applied once, at
// creation, and independently of field validation.
func (r *CreateRequest) CheckWindow(now time.Time, window time.Duration) error {
	if r.Employment.EndDate.IsZero() {
		return nil
	}
	if now.Sub(r.Employment.EndDate) > window {
		return dErrors.New(dErrors.CodeWindowExceeded, "reviews must be submitted within the review window after employment ends")
	}
	return nil
}

// Validate reports every field-level problem at once.
func (r *CreateRequest) Validate(now time.Time) error {
	fields := map[string]string{}
	if err := validation.Struct("invalid review", r); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			return err
		}
		for k, v := range dErrors.FieldsOf(err) {
			fields[k] = v
		}
	}
	if r.EmployeeID.IsNil() {
		fields["employee_id"] = "is required"
	}
	start, end := r.Employment.StartDate, r.Employment.EndDate
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		fields["employment_details.end_date"] = "must be after start_date"
	}
	if !end.IsZero() && end.After(now) {
		fields["employment_details.end_date"] = "must not be in the future"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid review", fields)
	}
	return nil
}

// UpdateRequest is a partial edit; nil fields are left unchanged.
type UpdateRequest struct {
	Ratings     *Ratings `json:"ratings,omitempty"`
	Comment     *string  `json:"comment,omitempty" validate:"omitempty,min=50,max=5000"`
	WouldRehire *bool    `json:"would_rehire,omitempty"`
}

func (r *UpdateRequest) Normalize() {
	if r.Comment != nil {
		trimmed := strings.TrimSpace(*r.Comment)
		r.Comment = &trimmed
	}
}

func (r *UpdateRequest) Validate() error {
	fields := map[string]string{}
	if err := validation.Struct("invalid review update", r); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			return err
		}
		for k, v := range dErrors.FieldsOf(err) {
			fields[k] = v
		}
	}
	if r.Comment != nil && *r.Comment == "" {
		fields["comment"] = "must be at least 50 characters"
	}
	if r.Ratings == nil && r.Comment == nil && r.WouldRehire == nil {
		fields["patch"] = "at least one of ratings, comment, would_rehire is required"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid review update", fields)
	}
	return nil
}

// NewReview builds an active review from a validated request.
func NewReview(companyID id.CompanyID, req CreateRequest, now time.Time) *Review {
	return &Review{
		ID:            id.NewReviewID(),
		CompanyID:     companyID,
		EmployeeID:    req.EmployeeID,
		Ratings:       req.Ratings,
		AverageRating: AverageOf(req.Ratings),
		Employment:    req.Employment,
		Comment:       req.Comment,
		WouldRehire:   req.WouldRehire,
		IsActive:      true,
		EditHistory:   []EditEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AverageOf is the arithmetic mean of the eight ratings.
func AverageOf(r Ratings) float64 {
	sum := 0
	for _, v := range r.Values() {
		sum += v
	}
	return float64(sum) / float64(len(ParameterNames))
}

// ApplyPatch snapshots the current state into the edit history and then
// applies the patch. History entries are never modified.
func (r *Review) ApplyPatch(patch UpdateRequest, editor id.UserID, now time.Time) {
	r.EditHistory = append(slices.Clip(r.EditHistory), EditEntry{
		EditedAt:        now,
		PreviousRatings: r.Ratings,
		PreviousComment: r.Comment,
		EditedBy:        editor,
	})
	if patch.Ratings != nil {
		r.Ratings = *patch.Ratings
		r.AverageRating = AverageOf(r.Ratings)
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	if patch.WouldRehire != nil {
		r.WouldRehire = *patch.WouldRehire
	}
	r.UpdatedAt = now
}

// SoftDelete deactivates the review; it reports false when it already was.
func (r *Review) SoftDelete(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	r.IsActive = false
	r.DeletedAt = &now
	r.UpdatedAt = now
	return true
}
