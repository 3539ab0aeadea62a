package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
)

func TestAverageOf(t *testing.T) {
	r := Ratings{
		TechnicalSkills: 10, Communication: 9, Teamwork: 8, ProblemSolving: 7,
		Punctuality: 6, Leadership: 5, Integrity: 4, WorkQuality: 3,
	}
	assert.InDelta(t, 6.5, AverageOf(r), 1e-9)
}

func TestCheckWindow(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	req := CreateRequest{}

	req.Employment.EndDate = now.Add(-DefaultReviewWindow)
	assert.NoError(t, req.CheckWindow(now, DefaultReviewWindow), "boundary is inclusive")

	req.Employment.EndDate = now.Add(-DefaultReviewWindow - time.Second)
	err := req.CheckWindow(now, DefaultReviewWindow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeWindowExceeded))
}

func TestUpdateRequestValidate(t *testing.T) {
	t.Run("empty patch", func(t *testing.T) {
		err := (&UpdateRequest{}).Validate()
		require.Error(t, err)
		assert.Contains(t, dErrors.FieldsOf(err), "patch")
	})

	t.Run("blank comment", func(t *testing.T) {
		blank := "   "
		req := UpdateRequest{Comment: &blank}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, dErrors.FieldsOf(err), "comment")
	})

	t.Run("ratings only", func(t *testing.T) {
		r := Ratings{1, 1, 1, 1, 1, 1, 1, 1}
		assert.NoError(t, (&UpdateRequest{Ratings: &r}).Validate())
	})
}

func TestApplyPatch(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	review := NewReview(id.NewCompanyID(), CreateRequest{
		EmployeeID: id.NewEmployeeID(),
		Ratings:    Ratings{5, 5, 5, 5, 5, 5, 5, 5},
		Comment:    strings.Repeat("x", MinCommentLength),
	}, now)
	editor := id.NewUserID()

	rehire := true
	review.ApplyPatch(UpdateRequest{WouldRehire: &rehire}, editor, now.Add(time.Hour))

	require.Len(t, review.EditHistory, 1)
	assert.Equal(t, editor, review.EditHistory[0].EditedBy)
	assert.Equal(t, 5.0, review.AverageRating, "ratings untouched when absent from the patch")
	assert.True(t, review.WouldRehire)
	assert.Equal(t, now.Add(time.Hour), review.UpdatedAt)
}

func TestSoftDelete(t *testing.T) {
	now := time.Now()
	review := &Review{IsActive: true}

	assert.True(t, review.SoftDelete(now))
	assert.False(t, review.IsActive)
	require.NotNil(t, review.DeletedAt)
	assert.False(t, review.SoftDelete(now.Add(time.Minute)))
}
