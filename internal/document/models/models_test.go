package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
)

func TestParseDocumentType(t *testing.T) {
	docType, err := ParseDocumentType(" National_ID ")
	require.NoError(t, err)
	assert.Equal(t, TypeNationalID, docType)

	_, err = ParseDocumentType("library_card")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewDocument(t *testing.T) {
	now := time.Now()

	doc, err := NewDocument(id.NewEmployeeID(), TypeTaxID, "  abcde1234f ", nil, now)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", doc.DocumentNumber)
	assert.Equal(t, StatusPending, doc.VerificationStatus)
	assert.True(t, doc.IsActive)

	_, err = NewDocument(id.EmployeeID{}, TypeTaxID, "", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestDocumentStateMachine(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	verifier := id.NewUserID()

	newDoc := func() *Document {
		doc, err := NewDocument(id.NewEmployeeID(), TypePassport, "A1234567", nil, now)
		require.NoError(t, err)
		return doc
	}

	t.Run("auto pass verifies and stamps verifiedAt", func(t *testing.T) {
		doc := newDoc()
		doc.ApplyAutoVerdict(AutoVerification{Attempted: true, Passed: true, Confidence: 80}, now)
		assert.Equal(t, StatusVerified, doc.VerificationStatus)
		require.NotNil(t, doc.VerifiedAt)
	})

	t.Run("auto fail moves to under review", func(t *testing.T) {
		doc := newDoc()
		doc.ApplyAutoVerdict(AutoVerification{Attempted: true, Confidence: 40}, now)
		assert.Equal(t, StatusUnderReview, doc.VerificationStatus)
		assert.Nil(t, doc.VerifiedAt)
	})

	t.Run("manual decision supersedes automatic verdict", func(t *testing.T) {
		doc := newDoc()
		doc.ApplyAutoVerdict(AutoVerification{Attempted: true, Passed: true, Confidence: 90}, now)
		require.NoError(t, doc.Decide(StatusRejected, verifier, " blurry scan ", now.Add(time.Hour)))

		assert.Equal(t, StatusRejected, doc.VerificationStatus)
		assert.Nil(t, doc.VerifiedAt)
		assert.Equal(t, "blurry scan", doc.DecisionNotes)
		assert.Equal(t, verifier, *doc.DecidedBy)

		require.NoError(t, doc.Decide(StatusVerified, verifier, "", now.Add(2*time.Hour)))
		assert.Equal(t, StatusVerified, doc.VerificationStatus)
		require.NotNil(t, doc.VerifiedAt)
	})

	t.Run("decision cannot set automatic-only states", func(t *testing.T) {
		doc := newDoc()
		err := doc.Decide(StatusUnderReview, verifier, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("deleted document cannot be decided", func(t *testing.T) {
		doc := newDoc()
		assert.True(t, doc.SoftDelete(now))
		assert.False(t, doc.SoftDelete(now), "second delete is a no-op")
		err := doc.Decide(StatusVerified, verifier, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
