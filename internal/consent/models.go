package consent

import (
	"time"

	id "trustline/pkg/domain"
)

// State is an employee's consent and visibility flags.
type State struct {
	EmployeeID     id.EmployeeID `json:"employee_id"`
	ConsentGiven   bool          `json:"consent_given"`
	ConsentGivenAt *time.Time    `json:"consent_given_at,omitempty"`
	ProfileVisible bool          `json:"profile_visible"`
	// Exposed is true when the profile may appear on external read paths.
	Exposed bool `json:"exposed"`
}

type VisibilityRequest struct {
	Visible *bool `json:"visible"`
}
