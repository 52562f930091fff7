// Package trend derives the mood trend label from a bounded rolling window.
package trend

import "backend/internal/models"

// windowSize is how many prior scores the comparison uses.
const windowSize = 5

// Compute compares a new mood score to the mean of the up-to-5 most recent
// prior scores. A crisis risk classification dominates the numeric
// comparison. With no prior events the trend is stable.
func Compute(prior []int, newScore int, risk models.RiskLevel) models.Trend {
	if risk == models.RiskCrisis {
		return models.TrendCrisis
	}
	if len(prior) == 0 {
		return models.TrendStable
	}

	window := prior
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}

	sum := 0
	for _, s := range window {
		sum += s
	}
	mean := float64(sum) / float64(len(window))

	switch {
	case float64(newScore) > mean+1:
		return models.TrendImproving
	case float64(newScore) < mean-1:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// Mean averages the up-to-n most recent scores. Returns 0 for an empty slice.
func Mean(scores []int, n int) float64 {
	if len(scores) == 0 {
		return 0
	}
	if n > 0 && len(scores) > n {
		scores = scores[len(scores)-n:]
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}
