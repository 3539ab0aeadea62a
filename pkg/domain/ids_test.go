package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustline/pkg/domain-errors"
)

// TestParseID_TrustBoundary covers the parsing invariant applied at every API
// entry point: IDs must be valid, non-empty, non-nil UUIDs.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"sql injection attempt", "'; DROP TABLE reviews;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"null byte", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
		{"uppercase uuid", "550E8400-E29B-41D4-A716-446655440000", false},
		{"lowercase uuid", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEmployeeID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	_, errUser := ParseUserID(valid)
	_, errEmployee := ParseEmployeeID(valid)
	_, errCompany := ParseCompanyID(valid)
	_, errReview := ParseReviewID(valid)
	_, errDocument := ParseDocumentID(valid)
	for _, err := range []error{errUser, errEmployee, errCompany, errReview, errDocument} {
		assert.NoError(t, err)
	}

	_, errUser = ParseUserID("invalid")
	_, errEmployee = ParseEmployeeID("invalid")
	_, errCompany = ParseCompanyID("invalid")
	_, errReview = ParseReviewID("invalid")
	_, errDocument = ParseDocumentID("invalid")
	for _, err := range []error{errUser, errEmployee, errCompany, errReview, errDocument} {
		assert.Error(t, err)
	}
}

func TestIDs_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Employee EmployeeID `json:"employee_id"`
		Company  CompanyID  `json:"company_id"`
	}
	in := payload{Employee: NewEmployeeID(), Company: NewCompanyID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Employee.String())

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"employee_id":"not-a-uuid"}`), &out)
	assert.Error(t, err)
}
