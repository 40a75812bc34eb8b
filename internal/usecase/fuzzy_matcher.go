package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/metrics"
)

// DefaultMatchLimit is the number of results returned when no limit is given
const DefaultMatchLimit = 10

// SearchOptions tunes a single FindSimilarItems call
type SearchOptions struct {
	// Threshold overrides the configured min_similarity when set
	Threshold *float64
	// Limit caps the result count; zero means DefaultMatchLimit
	Limit int
}

// FuzzyItemMatcher finds inventory items similar to a target through a three-stage funnel:
// cheap string-metric filtering, salient-word overlap, then full weighted scoring.
type FuzzyItemMatcher struct {
	cfg          *domain.MatchConfig
	normalizer   *TextNormalizer
	calculator   *SimilarityCalculator
	repo         domain.CandidateRepository
	logger       *zap.Logger
	candidateCap int
}

// NewFuzzyItemMatcher creates a matcher. candidateCap is clamped to domain.MaxCandidatePool.
func NewFuzzyItemMatcher(
	cfg *domain.MatchConfig,
	calculator *SimilarityCalculator,
	repo domain.CandidateRepository,
	log *zap.Logger,
	candidateCap int,
) *FuzzyItemMatcher {
	if candidateCap <= 0 || candidateCap > domain.MaxCandidatePool {
		candidateCap = domain.MaxCandidatePool
	}
	return &FuzzyItemMatcher{
		cfg:          cfg,
		normalizer:   calculator.normalizer,
		calculator:   calculator,
		repo:         repo,
		logger:       logger.OrNop(log),
		candidateCap: candidateCap,
	}
}

// FindSimilarItems returns candidates in scope scoring at or above the threshold,
// best first. scope.Category is used as the target's category.
// An empty result is not an error; store failures are.
func (m *FuzzyItemMatcher) FindSimilarItems(
	ctx context.Context,
	targetName string,
	scope domain.PoolScope,
	opts SearchOptions,
) ([]domain.ScoredCandidate, error) {
	target := domain.CandidateItem{Name: targetName, Category: scope.Category}
	return m.findSimilar(ctx, target, scope, opts)
}

// FindBestMatch returns the single best candidate scoring at least review_match.
// It returns nil and no error when nothing qualifies.
func (m *FuzzyItemMatcher) FindBestMatch(
	ctx context.Context,
	target domain.CandidateItem,
	scope domain.PoolScope,
) (*domain.ScoredCandidate, error) {
	review := m.cfg.Thresholds().ReviewMatch
	results, err := m.findSimilar(ctx, target, scope, SearchOptions{Threshold: &review, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// GetMatchRecommendation maps a score onto an action using the configured thresholds
func (m *FuzzyItemMatcher) GetMatchRecommendation(score domain.SimilarityScore) domain.MatchRecommendation {
	return RecommendationFor(m.cfg.Thresholds(), score)
}

// RecommendationFor is the pure threshold mapping behind GetMatchRecommendation
func RecommendationFor(t domain.Thresholds, score domain.SimilarityScore) domain.MatchRecommendation {
	s := score.Float64()
	switch {
	case s >= t.AutoMatch:
		return domain.MatchRecommendation{Action: domain.ActionAutoMatch, Confidence: domain.ConfidenceHigh}
	case s >= t.ReviewMatch:
		return domain.MatchRecommendation{Action: domain.ActionReview, Confidence: domain.ConfidenceMedium, NeedsReview: true}
	default:
		return domain.MatchRecommendation{Action: domain.ActionCreateNew, Confidence: domain.ConfidenceLow}
	}
}

type stageCandidate struct {
	item     domain.CandidateItem
	features itemFeatures
	simple   float64
}

func (m *FuzzyItemMatcher) findSimilar(
	ctx context.Context,
	target domain.CandidateItem,
	scope domain.PoolScope,
	opts SearchOptions,
) ([]domain.ScoredCandidate, error) {
	start := time.Now()
	defer func() { metrics.MatchDuration.Observe(time.Since(start).Seconds()) }()

	targetFeatures := m.calculator.features(target)
	if targetFeatures.normalized == "" {
		return nil, domain.ErrInvalidRequest
	}

	threshold := m.cfg.Thresholds().MinSimilarity
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	candidates, err := m.repo.FetchCandidates(ctx, scope, targetFeatures.normalized, m.candidateCap)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) > m.candidateCap {
		candidates = candidates[:m.candidateCap]
	}
	metrics.MatchStageSurvivors.WithLabelValues(metrics.StageFetched).Observe(float64(len(candidates)))

	// Stage 1: string metric on normalized names
	trigramFilter := m.cfg.Thresholds().TrigramFilter
	stage1 := make([]stageCandidate, 0, len(candidates))
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f := m.calculator.features(c)
		simple := m.calculator.metric.Similarity(targetFeatures.normalized, f.normalized)
		if simple >= trigramFilter {
			stage1 = append(stage1, stageCandidate{item: c, features: f, simple: simple})
		}
	}
	sort.SliceStable(stage1, func(i, j int) bool { return stage1[i].simple > stage1[j].simple })
	metrics.MatchStageSurvivors.WithLabelValues(metrics.StageTrigram).Observe(float64(len(stage1)))

	// Stage 2: at least one shared salient word
	stage2 := stage1[:0]
	for _, c := range stage1 {
		if HasSalientOverlap(targetFeatures.tokens, c.features.tokens) {
			stage2 = append(stage2, c)
		}
	}
	metrics.MatchStageSurvivors.WithLabelValues(metrics.StageSalient).Observe(float64(len(stage2)))

	// Stage 3: full weighted score
	results := make([]domain.ScoredCandidate, 0, len(stage2))
	for _, c := range stage2 {
		score := m.calculator.score(targetFeatures, c.features)
		m.logger.Debug("scored candidate",
			zap.String("target", targetFeatures.normalized),
			zap.String("candidate", c.features.normalized),
			zap.Float64("simple", c.simple),
			zap.Float64("score", score.Float64()),
		)
		if score.Float64() >= threshold {
			results = append(results, domain.ScoredCandidate{Item: c.item, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.Name < results[j].Item.Name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	metrics.MatchStageSurvivors.WithLabelValues(metrics.StageAdvanced).Observe(float64(len(results)))

	m.logger.Debug("match funnel complete",
		zap.String("target", targetFeatures.normalized),
		zap.Int("fetched", len(candidates)),
		zap.Int("trigram", len(stage1)),
		zap.Int("salient", len(stage2)),
		zap.Int("results", len(results)),
	)

	return results, nil
}
