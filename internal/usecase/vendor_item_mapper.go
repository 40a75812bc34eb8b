package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/metrics"
)

// MappingInputs are the lookup results a mapping decision is made from.
// Lookups stop at the first hit, so later fields are nil when an earlier one is set.
type MappingInputs struct {
	Existing  *domain.VendorMapping
	ExactItem *domain.CandidateItem
	BestMatch *domain.ScoredCandidate
}

// Decide resolves one vendor line item to exactly one terminal state.
// It never writes; the caller persists whatever the decision asks for.
func Decide(t domain.Thresholds, in MappingInputs) domain.MappingDecision {
	switch {
	case in.Existing != nil:
		return domain.MappingDecision{
			State:       domain.StateExactMappingFound,
			Item:        &domain.CandidateItem{ID: in.Existing.InventoryItemID},
			Existing:    in.Existing,
			Confidence:  in.Existing.Confidence,
			Method:      in.Existing.MatchMethod,
			NeedsReview: in.Existing.NeedsReview,
		}

	case in.ExactItem != nil:
		return domain.MappingDecision{
			State:      domain.StateExactNameMatch,
			Item:       in.ExactItem,
			Confidence: 1.0,
			Method:     domain.MethodExact,
		}

	case in.BestMatch != nil && in.BestMatch.Score.Float64() >= t.AutoMatch:
		return domain.MappingDecision{
			State:      domain.StateFuzzyAuto,
			Item:       &in.BestMatch.Item,
			Confidence: in.BestMatch.Score.Float64(),
			Method:     domain.MethodFuzzy,
			Match:      in.BestMatch,
		}

	case in.BestMatch != nil && in.BestMatch.Score.Float64() >= t.ReviewMatch:
		return domain.MappingDecision{
			State:       domain.StateFuzzyReview,
			Item:        &in.BestMatch.Item,
			Confidence:  in.BestMatch.Score.Float64(),
			Method:      domain.MethodFuzzy,
			NeedsReview: true,
			Match:       in.BestMatch,
		}

	default:
		// the system picked "new", so a person should confirm it
		return domain.MappingDecision{
			State:       domain.StateNoMatch,
			Confidence:  1.0,
			Method:      domain.MethodNew,
			NeedsReview: true,
			CreateItem:  true,
		}
	}
}

// VendorItemMapper runs the lookups behind Decide: stored mapping, exact
// normalized name, then fuzzy best match. Store failures are returned, not swallowed.
type VendorItemMapper struct {
	cfg        *domain.MatchConfig
	normalizer *TextNormalizer
	matcher    *FuzzyItemMatcher
	items      domain.CandidateRepository
	mappings   domain.MappingRepository
	logger     *zap.Logger
}

// NewVendorItemMapper creates a mapper
func NewVendorItemMapper(
	cfg *domain.MatchConfig,
	matcher *FuzzyItemMatcher,
	items domain.CandidateRepository,
	mappings domain.MappingRepository,
	log *zap.Logger,
) *VendorItemMapper {
	return &VendorItemMapper{
		cfg:        cfg,
		normalizer: matcher.normalizer,
		matcher:    matcher,
		items:      items,
		mappings:   mappings,
		logger:     logger.OrNop(log),
	}
}

// MappingKey is the stored form of a vendor description. Descriptions made only
// of brand or filler words keep their folded raw text so they still get a stable key.
func (m *VendorItemMapper) MappingKey(description string) string {
	if normalized := m.normalizer.Normalize(description); normalized != "" {
		return normalized
	}
	return foldRaw(description)
}

// Resolve decides how one vendor line item maps onto the user's inventory
func (m *VendorItemMapper) Resolve(
	ctx context.Context,
	userID, vendorID string,
	line domain.VendorLineItem,
) (domain.MappingDecision, error) {
	normalized := m.normalizer.Normalize(line.Description)
	key := normalized
	if key == "" {
		key = foldRaw(line.Description)
	}
	if key == "" {
		return domain.MappingDecision{}, fmt.Errorf("%w: empty item description", domain.ErrInvalidRequest)
	}

	var (
		in  MappingInputs
		err error
	)
	if normalized == "" {
		// nothing to match on; only a mapping a person already confirmed applies
		m.logger.Warn("vendor description has no matchable words",
			zap.String("vendorId", vendorID),
			zap.String("description", line.Description),
		)
		in, err = m.lookupMapping(ctx, userID, vendorID, key)
	} else {
		in, err = m.lookup(ctx, userID, vendorID, key, line)
	}
	if err != nil {
		return domain.MappingDecision{}, err
	}

	decision := Decide(m.cfg.Thresholds(), in)
	metrics.MappingDecisions.WithLabelValues(string(decision.State)).Inc()
	m.logger.Debug("vendor item resolved",
		zap.String("vendorId", vendorID),
		zap.String("description", key),
		zap.String("state", string(decision.State)),
		zap.Float64("confidence", decision.Confidence),
	)
	return decision, nil
}

func (m *VendorItemMapper) lookup(
	ctx context.Context,
	userID, vendorID, normalized string,
	line domain.VendorLineItem,
) (MappingInputs, error) {
	in, err := m.lookupMapping(ctx, userID, vendorID, normalized)
	if err != nil || in.Existing != nil {
		return in, err
	}

	exact, err := m.items.FindByNormalizedName(ctx, domain.PoolScope{UserID: userID}, normalized)
	switch {
	case err == nil:
		return MappingInputs{ExactItem: exact}, nil
	case !errors.Is(err, domain.ErrItemNotFound):
		return MappingInputs{}, fmt.Errorf("find item by name: %w", err)
	}

	target := domain.CandidateItem{Name: line.Description, Category: line.Category}
	if ps := strings.TrimSpace(line.PackSize); ps != "" {
		target.PackSize = &ps
	}
	best, err := m.matcher.FindBestMatch(ctx, target, domain.PoolScope{UserID: userID, Category: line.Category})
	if err != nil {
		return MappingInputs{}, err
	}
	return MappingInputs{BestMatch: best}, nil
}

func (m *VendorItemMapper) lookupMapping(ctx context.Context, userID, vendorID, key string) (MappingInputs, error) {
	existing, err := m.mappings.FindMapping(ctx, userID, vendorID, key)
	switch {
	case err == nil:
		return MappingInputs{Existing: existing}, nil
	case errors.Is(err, domain.ErrMappingNotFound):
		return MappingInputs{}, nil
	default:
		return MappingInputs{}, fmt.Errorf("find mapping: %w", err)
	}
}
