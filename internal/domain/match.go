package domain

import "math"

// SimilarityScore is a composite similarity in [0, 1]
type SimilarityScore float64

// NewSimilarityScore clamps v to [0, 1]. NaN becomes 0.
func NewSimilarityScore(v float64) SimilarityScore {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return SimilarityScore(v)
}

// Float64 returns the raw score
func (s SimilarityScore) Float64() float64 {
	return float64(s)
}

// MatchAction is what the caller should do with a candidate match
type MatchAction string

const (
	ActionAutoMatch MatchAction = "auto_match"
	ActionReview    MatchAction = "review"
	ActionCreateNew MatchAction = "create_new"
)

// Confidence is a coarse label derived from a score
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchRecommendation is derived deterministically from a score via fixed thresholds
type MatchRecommendation struct {
	Action      MatchAction `json:"action"`
	Confidence  Confidence  `json:"confidence"`
	NeedsReview bool        `json:"needsReview"`
}
