package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/metrics"
)

// DefaultMatchCacheTTL is used when no TTL is configured
const DefaultMatchCacheTTL = 15 * time.Minute

// generationPrefix keys the per-user token embedded in every preview key.
// Replacing the token orphans all of that user's cached previews.
const generationPrefix = "match-gen:"

// SimilarItemsRequest is a match preview request
type SimilarItemsRequest struct {
	Name      string   `json:"name" binding:"required"`
	Category  string   `json:"category,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// SimilarItem is one preview result with the action its score implies
type SimilarItem struct {
	domain.ScoredCandidate
	Recommendation domain.MatchRecommendation `json:"recommendation"`
}

// SimilarItemsResponse is the result of a match preview
type SimilarItemsResponse struct {
	Query   string        `json:"query"`
	Results []SimilarItem `json:"results"`
	Cached  bool          `json:"cached"`
}

// MatchServiceConfig holds configuration for the match service
type MatchServiceConfig struct {
	CacheTTL time.Duration
}

// MatchService is the read-only match preview used by the API.
// Results are cached; a failing cache only costs a recomputation.
type MatchService struct {
	matcher  *FuzzyItemMatcher
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewMatchService creates a match service. cache may be nil to disable caching.
func NewMatchService(matcher *FuzzyItemMatcher, cache domain.CacheRepository, config MatchServiceConfig, log *zap.Logger) *MatchService {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = DefaultMatchCacheTTL
	}
	return &MatchService{
		matcher:  matcher,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.OrNop(log),
		now:      time.Now,
	}
}

// FindSimilarItems previews the items a name would match for userID
func (s *MatchService) FindSimilarItems(ctx context.Context, userID string, req SimilarItemsRequest) (*SimilarItemsResponse, error) {
	normalized := s.matcher.normalizer.Normalize(req.Name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 1) {
		return nil, fmt.Errorf("%w: threshold must be within [0, 1]", domain.ErrInvalidRequest)
	}
	if req.Limit < 0 || req.Limit > domain.MaxCandidatePool {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", domain.ErrInvalidRequest, domain.MaxCandidatePool)
	}

	threshold := s.matcher.cfg.Thresholds().MinSimilarity
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultMatchLimit
	}

	key := s.generateCacheKey(userID, s.generation(ctx, userID), req.Category, normalized, threshold, limit)
	if cached, err := s.getFromCache(ctx, key); err == nil {
		cached.Cached = true
		return cached, nil
	}

	scope := domain.PoolScope{UserID: userID, Category: req.Category}
	scored, err := s.matcher.FindSimilarItems(ctx, req.Name, scope, SearchOptions{Threshold: &threshold, Limit: limit})
	if err != nil {
		return nil, err
	}

	resp := &SimilarItemsResponse{Query: normalized, Results: make([]SimilarItem, 0, len(scored))}
	for _, sc := range scored {
		resp.Results = append(resp.Results, SimilarItem{
			ScoredCandidate: sc,
			Recommendation:  s.matcher.GetMatchRecommendation(sc.Score),
		})
	}

	if err := s.setInCache(ctx, key, resp); err != nil {
		s.logger.Warn("match cache write failed", zap.String("key", key), zap.Error(err))
	}
	return resp, nil
}

// Recommendation maps a raw score onto an action
func (s *MatchService) Recommendation(score float64) (domain.MatchRecommendation, error) {
	if score < 0 || score > 1 {
		return domain.MatchRecommendation{}, fmt.Errorf("%w: score must be within [0, 1]", domain.ErrInvalidRequest)
	}
	return s.matcher.GetMatchRecommendation(domain.NewSimilarityScore(score)), nil
}

// InvalidateUser drops every cached preview for userID. Called after the user's
// inventory changes so new items show up before the TTL runs out.
func (s *MatchService) InvalidateUser(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	token := strconv.FormatInt(s.now().UnixNano(), 36)
	// outlives every preview written under the previous token
	return s.cache.Set(ctx, generationPrefix+userID, []byte(token), s.cacheTTL)
}

// generation returns the user's current preview token, "0" until the first invalidation
func (s *MatchService) generation(ctx context.Context, userID string) string {
	if s.cache == nil {
		return "0"
	}
	raw, err := s.cache.Get(ctx, generationPrefix+userID)
	if err != nil || len(raw) == 0 {
		return "0"
	}
	return string(raw)
}

// generateCacheKey builds "match:{user}:{generation}:{category}:{normalized}:{threshold}:{limit}"
func (s *MatchService) generateCacheKey(userID, generation, category, normalized string, threshold float64, limit int) string {
	return strings.Join([]string{
		"match",
		userID,
		generation,
		strings.ToLower(strings.TrimSpace(category)),
		normalized,
		strconv.FormatFloat(threshold, 'f', -1, 64),
		strconv.Itoa(limit),
	}, ":")
}

func (s *MatchService) getFromCache(ctx context.Context, key string) (*SimilarItemsResponse, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCacheMiss):
		metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, err
	default:
		metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
		s.logger.Warn("match cache read failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	var resp SimilarItemsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
		s.logger.Warn("discarding corrupt match cache entry", zap.String("key", key), zap.Error(err))
		return nil, domain.ErrCacheMiss
	}
	metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
	return &resp, nil
}

func (s *MatchService) setInCache(ctx context.Context, key string, resp *SimilarItemsResponse) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}
