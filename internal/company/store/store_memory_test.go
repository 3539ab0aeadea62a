package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/company/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemory()

	acme := models.NewCompany(id.NewUserID(), models.RegisterRequest{Name: "Acme"}, now)
	require.NoError(t, store.Save(ctx, acme))

	t.Run("names are unique ignoring case", func(t *testing.T) {
		dup := models.NewCompany(id.NewUserID(), models.RegisterRequest{Name: "ACME"}, now)
		assert.ErrorIs(t, store.Save(ctx, dup), sentinel.ErrConflict)
	})

	t.Run("stats and verification are mirrored", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, store.UpdateStats(ctx, acme.ID, models.StatsUpdate{
			ReviewCount: 2, AverageRating: 7.5, ReputationScore: 61, LastReviewAt: &later,
		}, later))
		require.NoError(t, store.SetVerified(ctx, acme.ID, true, later))

		found, err := store.FindByID(ctx, acme.ID)
		require.NoError(t, err)
		assert.True(t, found.Verified)
		assert.Equal(t, 2, found.ReviewCount)
		assert.Equal(t, 61, found.ReputationScore)
		assert.Equal(t, later, *found.LastReviewAt)

		*found.LastReviewAt = now
		again, err := store.FindByID(ctx, acme.ID)
		require.NoError(t, err)
		assert.Equal(t, later, *again.LastReviewAt, "callers get copies")
	})

	t.Run("unknown company", func(t *testing.T) {
		_, err := store.FindByID(ctx, id.NewCompanyID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.SetVerified(ctx, id.NewCompanyID(), true, now), sentinel.ErrNotFound)
	})
}
