package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewSimilarityScore(t *testing.T) {
	tests := []struct {
		in   float64
		want SimilarityScore
	}{
		{0.5, 0.5},
		{0, 0},
		{1, 1},
		{-0.2, 0},
		{1.3, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NewSimilarityScore(tt.in), "NewSimilarityScore(%v)", tt.in)
	}
}

func TestNewParsedPackSize(t *testing.T) {
	t.Run("accepts valid values", func(t *testing.T) {
		p, err := NewParsedPackSize(12, decimal.NewFromInt(2), "lb", PatternMultiply)
		assert.NoError(t, err)
		assert.Equal(t, 12, p.Count)
		assert.True(t, p.HasPieces())
	})

	t.Run("rejects zero count", func(t *testing.T) {
		_, err := NewParsedPackSize(0, decimal.NewFromInt(2), "lb", PatternMultiply)
		assert.True(t, errors.Is(err, ErrUnparseablePackSize))
	})

	t.Run("rejects negative size", func(t *testing.T) {
		_, err := NewParsedPackSize(1, decimal.NewFromInt(-1), "lb", PatternSimple)
		assert.True(t, errors.Is(err, ErrUnparseablePackSize))
	})

	t.Run("simple packs have no pieces", func(t *testing.T) {
		p, err := NewParsedPackSize(1, decimal.NewFromInt(10), "lb", PatternSimple)
		assert.NoError(t, err)
		assert.False(t, p.HasPieces())
	})
}

func TestMappingDecision_NeedsWrite(t *testing.T) {
	assert.False(t, MappingDecision{State: StateExactMappingFound}.NeedsWrite())
	for _, s := range []MappingState{StateExactNameMatch, StateFuzzyAuto, StateFuzzyReview, StateNoMatch} {
		assert.True(t, MappingDecision{State: s}.NeedsWrite(), string(s))
	}
}
