package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PatternType records which pack-size notation produced a ParsedPackSize
type PatternType string

const (
	PatternMultiply PatternType = "multiply"
	PatternCanSize  PatternType = "can_size"
	PatternCount    PatternType = "count"
	PatternSimple   PatternType = "simple"
)

// UnitCategory groups units that can be converted into each other
type UnitCategory string

const (
	UnitCategoryWeight UnitCategory = "weight"
	UnitCategoryVolume UnitCategory = "volume"
	UnitCategoryCount  UnitCategory = "count"
)

// Base units per category
const (
	BaseUnitWeight = "oz"
	BaseUnitVolume = "fl oz"
	BaseUnitCount  = "ea"
)

// ParsedPackSize is the structured form of a vendor pack-size string,
// e.g. "12 x 2 lb" is Count=12, Size=2, Unit="lb".
type ParsedPackSize struct {
	Count       int             `json:"count"`
	Size        decimal.Decimal `json:"size"`
	Unit        string          `json:"unit"`
	PatternType PatternType     `json:"patternType"`
}

// NewParsedPackSize validates count >= 1 and size >= 0
func NewParsedPackSize(count int, size decimal.Decimal, unit string, pattern PatternType) (ParsedPackSize, error) {
	if count < 1 {
		return ParsedPackSize{}, fmt.Errorf("%w: count must be at least 1, got %d", ErrUnparseablePackSize, count)
	}
	if size.IsNegative() {
		return ParsedPackSize{}, fmt.Errorf("%w: size must not be negative, got %s", ErrUnparseablePackSize, size)
	}
	return ParsedPackSize{
		Count:       count,
		Size:        size,
		Unit:        unit,
		PatternType: pattern,
	}, nil
}

// HasPieces reports whether the pack is made of individually sized pieces
func (p ParsedPackSize) HasPieces() bool {
	return p.PatternType == PatternMultiply || p.PatternType == PatternCanSize
}

// UnitCost is the normalized cost derived from a pack price.
// CostPerPiece is only set for packs made of pieces.
type UnitCost struct {
	CostPerUnit  decimal.Decimal  `json:"costPerUnit"`
	BaseUnit     string           `json:"baseUnit"`
	CostPerPiece *decimal.Decimal `json:"costPerPiece,omitempty"`
	Pack         ParsedPackSize   `json:"pack"`
}
