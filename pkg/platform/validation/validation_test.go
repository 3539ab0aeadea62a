package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustline/pkg/domain-errors"
)

type scores struct {
	Teamwork int `json:"teamwork" validate:"gte=1,lte=10"`
}

type sample struct {
	Name   string   `json:"name" validate:"required,max=5"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Kind   string   `json:"kind" validate:"oneof=full_time part_time"`
	Scores scores   `json:"scores"`
	Tags   []string `json:"tags" validate:"max=2"`
}

func TestStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		require.NoError(t, Struct("invalid sample", sample{Name: "ok", Kind: "full_time", Scores: scores{Teamwork: 5}}))
	})

	t.Run("reports nested json field paths", func(t *testing.T) {
		err := Struct("invalid sample", sample{
			Name:   "too long",
			Email:  "nope",
			Kind:   "freelance",
			Scores: scores{Teamwork: 11},
			Tags:   []string{"a", "b", "c"},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		fields := dErrors.FieldsOf(err)
		assert.Equal(t, "must be at most 5 characters", fields["name"])
		assert.Equal(t, "must be a valid email address", fields["email"])
		assert.Equal(t, "must be one of: full_time, part_time", fields["kind"])
		assert.Equal(t, "must be at most 10", fields["scores.teamwork"])
		assert.Equal(t, "must be at most 2", fields["tags"])
	})

	t.Run("missing required field", func(t *testing.T) {
		err := Struct("invalid sample", sample{Kind: "part_time", Scores: scores{Teamwork: 1}})
		assert.Equal(t, "is required", dErrors.FieldsOf(err)["name"])
	})
}
