// Package scoring turns the active review set into the derived reputation
// fields of employees and companies.
package scoring

import (
	"math"
	"time"

	"trustline/internal/review/models"
)

const (
	// DefaultRecencyWindow is how recent a review must be to count towards a
	// company's recency component.
	DefaultRecencyWindow = 180 * 24 * time.Hour

	reputationCountCap = 50
)

// Score is an employee's aggregate over active reviews.
type Score struct {
	OverallScore int                `json:"overall_score"`
	TotalReviews int                `json:"total_reviews"`
	Breakdown    map[string]float64 `json:"breakdown"`
}

// AverageRating is the mean of the eight rated parameters.
func AverageRating(r models.Ratings) float64 {
	return models.AverageOf(r)
}

// EmployeeScore aggregates the given reviews; inactive ones are skipped.
// The overall score is the mean per-review average scaled to 0-100.
func EmployeeScore(reviews []*models.Review) Score {
	score := Score{Breakdown: emptyBreakdown()}

	var (
		sumAverages float64
		sums        [8]int
	)
	for _, r := range reviews {
		if r == nil || !r.IsActive {
			continue
		}
		score.TotalReviews++
		sumAverages += AverageRating(r.Ratings)
		for i, v := range r.Ratings.Values() {
			sums[i] += v
		}
	}
	if score.TotalReviews == 0 {
		return score
	}

	n := float64(score.TotalReviews)
	score.OverallScore = clamp(int(math.Round(sumAverages/n*10)), 0, 100)
	for i, name := range models.ParameterNames {
		score.Breakdown[name] = roundTo(float64(sums[i])/n, 1)
	}
	return score
}

// ReputationInput is the company-level view of its active reviews.
type ReputationInput struct {
	Verified       bool
	ReviewAverages []float64
	CreatedAts     []time.Time
}

// CompanyReputation scores a company out of 100:
//
//	20 x verified + 30 x min(count,50)/50 + 30 x consistency + 20 x recency
//
// consistency = max(0, 10 - populationVariance(averages)) / 10 and recency is
// the share of reviews created within recencyWindow of now. With no reviews
// only the verified component can contribute.
func CompanyReputation(in ReputationInput, now time.Time, recencyWindow time.Duration) int {
	var total float64
	if in.Verified {
		total += 20
	}

	count := len(in.ReviewAverages)
	if count > 0 {
		total += 30 * float64(min(count, reputationCountCap)) / reputationCountCap
		total += 30 * math.Max(0, 10-populationVariance(in.ReviewAverages)) / 10
	}

	if len(in.CreatedAts) > 0 {
		recent := 0
		for _, createdAt := range in.CreatedAts {
			if now.Sub(createdAt) <= recencyWindow {
				recent++
			}
		}
		total += 20 * float64(recent) / float64(len(in.CreatedAts))
	}

	return clamp(int(math.Round(total)), 0, 100)
}

// MeanAverage is the mean of the review averages, to two decimals.
func MeanAverage(averages []float64) float64 {
	if len(averages) == 0 {
		return 0
	}
	var sum float64
	for _, a := range averages {
		sum += a
	}
	return roundTo(sum/float64(len(averages)), 2)
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}

func emptyBreakdown() map[string]float64 {
	b := make(map[string]float64, len(models.ParameterNames))
	for _, name := range models.ParameterNames {
		b[name] = 0
	}
	return b
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
