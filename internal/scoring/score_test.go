package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trustline/internal/review/models"
)

func uniform(v int) models.Ratings {
	return models.Ratings{
		TechnicalSkills: v, Communication: v, Teamwork: v, ProblemSolving: v,
		Punctuality: v, Leadership: v, Integrity: v, WorkQuality: v,
	}
}

func activeReview(r models.Ratings) *models.Review {
	return &models.Review{Ratings: r, AverageRating: models.AverageOf(r), IsActive: true}
}

func TestEmployeeScore(t *testing.T) {
	t.Run("no reviews is zero", func(t *testing.T) {
		score := EmployeeScore(nil)
		assert.Equal(t, 0, score.OverallScore)
		assert.Equal(t, 0, score.TotalReviews)
		assert.Len(t, score.Breakdown, 8)
		assert.Zero(t, score.Breakdown["teamwork"])
	})

	t.Run("single review of all eights", func(t *testing.T) {
		score := EmployeeScore([]*models.Review{activeReview(uniform(8))})
		assert.Equal(t, 80, score.OverallScore)
		assert.Equal(t, 1, score.TotalReviews)
		for _, name := range models.ParameterNames {
			assert.Equal(t, 8.0, score.Breakdown[name], name)
		}
	})

	t.Run("mean of per-review averages rounds half up", func(t *testing.T) {
		mixed := uniform(8)
		mixed.Leadership = 6
		mixed.Integrity = 6 // average 7.5
		score := EmployeeScore([]*models.Review{activeReview(mixed), activeReview(uniform(8))})
		assert.Equal(t, 78, score.OverallScore) // (7.5 + 8) / 2 * 10 = 77.5
		assert.Equal(t, 7.0, score.Breakdown["leadership"])
		assert.Equal(t, 8.0, score.Breakdown["teamwork"])
	})

	t.Run("inactive reviews are skipped", func(t *testing.T) {
		deleted := activeReview(uniform(2))
		deleted.IsActive = false
		score := EmployeeScore([]*models.Review{deleted, activeReview(uniform(10))})
		assert.Equal(t, 100, score.OverallScore)
		assert.Equal(t, 1, score.TotalReviews)
	})

	t.Run("bounds", func(t *testing.T) {
		assert.Equal(t, 10, EmployeeScore([]*models.Review{activeReview(uniform(1))}).OverallScore)
		assert.Equal(t, 100, EmployeeScore([]*models.Review{activeReview(uniform(10))}).OverallScore)
	})

	t.Run("breakdown keeps one decimal", func(t *testing.T) {
		a, b, c := uniform(7), uniform(7), uniform(8)
		score := EmployeeScore([]*models.Review{activeReview(a), activeReview(b), activeReview(c)})
		assert.Equal(t, 7.3, score.Breakdown["communication"])
	})
}

func TestCompanyReputation(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-200 * 24 * time.Hour)

	tests := []struct {
		name string
		in   ReputationInput
		want int
	}{
		{"no reviews unverified", ReputationInput{}, 0},
		{"no reviews verified", ReputationInput{Verified: true}, 20},
		// 30*1/50 + 30*1 + 20*1 = 50.6
		{"single recent review", ReputationInput{ReviewAverages: []float64{8}, CreatedAts: []time.Time{recent}}, 51},
		{"single recent review verified", ReputationInput{Verified: true, ReviewAverages: []float64{8}, CreatedAts: []time.Time{recent}}, 71},
		// 0.6 + 30 + 0
		{"single old review", ReputationInput{ReviewAverages: []float64{8}, CreatedAts: []time.Time{old}}, 31},
		// variance 4: 1.2 + 30*0.6 + 20 = 39.2
		{"inconsistent reviews", ReputationInput{ReviewAverages: []float64{5, 9}, CreatedAts: []time.Time{recent, recent}}, 39},
		// half recent: 1.2 + 30 + 10
		{"half recent", ReputationInput{ReviewAverages: []float64{7, 7}, CreatedAts: []time.Time{recent, old}}, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompanyReputation(tt.in, now, DefaultRecencyWindow))
		})
	}

	t.Run("count component saturates at fifty reviews", func(t *testing.T) {
		in := ReputationInput{Verified: true}
		for range 80 {
			in.ReviewAverages = append(in.ReviewAverages, 6)
			in.CreatedAts = append(in.CreatedAts, recent)
		}
		assert.Equal(t, 100, CompanyReputation(in, now, DefaultRecencyWindow))
	})

	t.Run("extreme variance floors consistency at zero", func(t *testing.T) {
		in := ReputationInput{ReviewAverages: []float64{1, 10, 1, 10}, CreatedAts: []time.Time{old, old, old, old}}
		// variance 20.25: only the count component remains, 30*4/50 = 2.4
		assert.Equal(t, 2, CompanyReputation(in, now, DefaultRecencyWindow))
	})
}

func TestMeanAverage(t *testing.T) {
	assert.Zero(t, MeanAverage(nil))
	assert.Equal(t, 7.33, MeanAverage([]float64{7, 7, 8}))
}
