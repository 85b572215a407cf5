package scanner

import (
	"math"
	"strings"
)

// ScoreInput carries everything the rubric reads.
type ScoreInput struct {
	ProductsWithoutImages      int
	ProductsWithoutDescription int
	TrustGaps                  []TrustGapIssue
	AbandonmentRate            float64
	Tracking                   []TrackingHealthIssue
	ThemeName                  string
	TotalRevenue               int64
}

// Rating is the scorer's output.
type Rating struct {
	Score                int
	Grade                string
	EstimatedMonthlyLoss int64
}

// penalizedThemes lose points when the theme name contains them.
var penalizedThemes = []string{"Debut", "Brooklyn"}

// gradeThreshold maps a minimum score to a letter grade, highest first.
type gradeThreshold struct {
	min   int
	grade string
}

var gradeScale = []gradeThreshold{
	{95, "A"},
	{90, "A-"},
	{85, "B+"},
	{80, "B"},
	{75, "B-"},
	{70, "C+"},
	{65, "C"},
	{60, "C-"},
	{50, "D+"},
}

const lowestGrade = "D"

// Score applies the revenue-leak rubric: 100 minus additive penalties,
// clamped to [0, 100].
func Score(in ScoreInput) Rating {
	score := 100.0

	score -= float64(min(15, in.ProductsWithoutImages*2))
	score -= float64(min(10, in.ProductsWithoutDescription))

	for _, issue := range in.TrustGaps {
		if !issue.Found && issue.Severity == SeverityHigh {
			score -= 8
		}
	}

	score -= abandonmentPenalty(in.AbandonmentRate)

	for _, issue := range in.Tracking {
		if !issue.Found && issue.Severity == SeverityHigh {
			score -= 10
		}
	}

	for _, name := range penalizedThemes {
		if strings.Contains(in.ThemeName, name) {
			score -= 10
			break
		}
	}

	final := clamp(int(math.Round(score)))
	return Rating{
		Score:                final,
		Grade:                Grade(final),
		EstimatedMonthlyLoss: EstimatedLoss(in.TotalRevenue, final),
	}
}

func abandonmentPenalty(rate float64) float64 {
	switch {
	case rate > 70:
		return 20
	case rate > 50:
		return 15
	case rate > 30:
		return 10
	case rate > 20:
		return 5
	default:
		return 0
	}
}

// Grade maps a score to its letter grade.
func Grade(score int) string {
	for _, t := range gradeScale {
		if score >= t.min {
			return t.grade
		}
	}
	return lowestGrade
}

// EstimatedLoss is the share of monthly revenue the score says is leaking.
func EstimatedLoss(totalRevenue int64, score int) int64 {
	loss := roundInt(float64(totalRevenue) * float64(100-score) / 100)
	if loss < 0 {
		return 0
	}
	return loss
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
