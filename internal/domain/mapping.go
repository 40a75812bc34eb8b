package domain

import "time"

// MappingState is the terminal state a vendor line item resolved to
type MappingState string

const (
	StateExactMappingFound MappingState = "exact_mapping_found"
	StateExactNameMatch    MappingState = "exact_name_match"
	StateFuzzyAuto         MappingState = "fuzzy_auto"
	StateFuzzyReview       MappingState = "fuzzy_review"
	StateNoMatch           MappingState = "no_match"
)

// MatchMethod is stored with a mapping to record how it was made
type MatchMethod string

const (
	MethodExact MatchMethod = "exact"
	MethodFuzzy MatchMethod = "fuzzy"
	MethodNew   MatchMethod = "new"
)

// VendorLineItem is one line of a vendor invoice
type VendorLineItem struct {
	Description string   `json:"description" binding:"required"`
	PackSize    string   `json:"packSize,omitempty"`
	PackPrice   *float64 `json:"packPrice,omitempty"`
	Quantity    int      `json:"quantity,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// VendorMapping links a vendor's description of an item to a canonical item
type VendorMapping struct {
	ID                    string      `json:"id" db:"id"`
	UserID                string      `json:"userId" db:"user_id"`
	VendorID              string      `json:"vendorId" db:"vendor_id"`
	VendorDescription     string      `json:"vendorDescription" db:"vendor_description"`
	NormalizedDescription string      `json:"normalizedDescription" db:"normalized_description"`
	InventoryItemID       string      `json:"inventoryItemId" db:"inventory_item_id"`
	Confidence            float64     `json:"confidence" db:"confidence"`
	MatchMethod           MatchMethod `json:"matchMethod" db:"match_method"`
	NeedsReview           bool        `json:"needsReview" db:"needs_review"`
	CreatedAt             time.Time   `json:"createdAt" db:"created_at"`
}

// MappingDecision is the outcome of resolving one vendor line item.
// For StateNoMatch, Item is nil and the caller creates a new canonical item.
type MappingDecision struct {
	State       MappingState     `json:"state"`
	Item        *CandidateItem   `json:"item,omitempty"`
	Existing    *VendorMapping   `json:"existingMapping,omitempty"`
	Confidence  float64          `json:"confidence"`
	Method      MatchMethod      `json:"method,omitempty"`
	NeedsReview bool             `json:"needsReview"`
	CreateItem  bool             `json:"createItem"`
	Match       *ScoredCandidate `json:"match,omitempty"`
}

// NeedsWrite reports whether the caller must persist a new mapping
func (d MappingDecision) NeedsWrite() bool {
	return d.State != StateExactMappingFound
}
