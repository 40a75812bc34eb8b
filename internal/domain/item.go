package domain

import "time"

// CandidateItem is a canonical inventory item as seen by the matcher.
// Records are read-only for the duration of a match call.
type CandidateItem struct {
	ID             string   `json:"id" db:"id"`
	Name           string   `json:"name" db:"name"`
	NormalizedName string   `json:"normalizedName" db:"normalized_name"`
	Category       string   `json:"category,omitempty" db:"category"`
	PackSize       *string  `json:"packSize,omitempty" db:"pack_size"`
	UnitPrice      *float64 `json:"unitPrice,omitempty" db:"unit_price"`
}

// PoolScope narrows the candidate pool for a match call
type PoolScope struct {
	UserID   string `json:"userId"`
	Category string `json:"category,omitempty"`
}

// ScoredCandidate is a candidate with the similarity score it earned against a target
type ScoredCandidate struct {
	Item  CandidateItem   `json:"item"`
	Score SimilarityScore `json:"score"`
}

// NewInventoryItem carries the fields needed to create a canonical item
type NewInventoryItem struct {
	ID             string
	UserID         string
	Name           string
	NormalizedName string
	Category       string
	PackSize       *string
	UnitPrice      *float64
	CreatedAt      time.Time
}

// Candidate returns the matcher view of a newly created item
func (n NewInventoryItem) Candidate() CandidateItem {
	return CandidateItem{
		ID:             n.ID,
		Name:           n.Name,
		NormalizedName: n.NormalizedName,
		Category:       n.Category,
		PackSize:       n.PackSize,
		UnitPrice:      n.UnitPrice,
	}
}
