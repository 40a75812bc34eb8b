package usecase

import (
	"math"
	"strings"

	"github.com/kitchenledger/backend/internal/domain"
)

// Token weight categories for scoring
const (
	weightLongToken   = 2.0 // five characters or more (chicken, breast)
	weightMediumToken = 1.5 // three or four characters (ham, rice)
	weightDefault     = 1.0 // everything else
)

// Size similarity tolerance bands, as relative difference to the larger size
var sizeBands = []struct {
	maxDiff float64
	score   float64
}{
	{0.05, 1.0},
	{0.15, 0.8},
	{0.30, 0.5},
	{0.50, 0.3},
}

// neutralSizeScore is used when either item has no detectable size
const neutralSizeScore = 0.5

// SimilarityCalculator computes the weighted multi-signal score between two items
type SimilarityCalculator struct {
	cfg        *domain.MatchConfig
	normalizer *TextNormalizer
	metric     StringSimilarity
}

// NewSimilarityCalculator creates a calculator; a nil metric defaults to edit-distance ratio
func NewSimilarityCalculator(cfg *domain.MatchConfig, normalizer *TextNormalizer, metric StringSimilarity) *SimilarityCalculator {
	if metric == nil {
		metric = LevenshteinSimilarity{}
	}
	return &SimilarityCalculator{
		cfg:        cfg,
		normalizer: normalizer,
		metric:     metric,
	}
}

// itemFeatures holds everything derived from one item for scoring
type itemFeatures struct {
	normalized string
	raw        string
	tokens     []string
	size       *float64
	category   string
}

// identity is the normalized name, or the folded raw name when nothing survives normalization
func (f itemFeatures) identity() string {
	if f.normalized != "" {
		return f.normalized
	}
	return f.raw
}

func (c *SimilarityCalculator) features(item domain.CandidateItem) itemFeatures {
	normalized := c.normalizer.Normalize(item.Name)
	if normalized == "" {
		normalized = c.normalizer.Normalize(item.NormalizedName)
	}

	size := c.normalizer.extractSizeNormalized(normalized)
	if size == nil && item.PackSize != nil {
		size = c.normalizer.ExtractSize(*item.PackSize)
	}

	return itemFeatures{
		normalized: normalized,
		raw:        foldRaw(item.Name),
		tokens:     c.normalizer.tokenizeNormalized(normalized),
		size:       size,
		category:   strings.ToLower(strings.TrimSpace(item.Category)),
	}
}

// CalculateAdvancedSimilarity returns the weighted name, token, size and category score.
// The result is symmetric, rounded to four decimals and always within [0, 1].
func (c *SimilarityCalculator) CalculateAdvancedSimilarity(a, b domain.CandidateItem) domain.SimilarityScore {
	return c.score(c.features(a), c.features(b))
}

func (c *SimilarityCalculator) score(a, b itemFeatures) domain.SimilarityScore {
	sameName := a.identity() != "" && a.identity() == b.identity()
	if sameName && a.category == b.category {
		return domain.NewSimilarityScore(1)
	}

	w := c.cfg.Weights()
	total := w.Name*c.metric.Similarity(a.normalized, b.normalized) +
		w.Token*TokenSimilarity(a.tokens, b.tokens, sameName) +
		w.Size*SizeSimilarity(a.size, b.size) +
		w.Category*CategorySimilarity(a.category, b.category)

	return domain.NewSimilarityScore(math.Round(total*10000) / 10000)
}

// CalculateSimpleSimilarity is the string metric alone over normalized text
func (c *SimilarityCalculator) CalculateSimpleSimilarity(text1, text2 string) float64 {
	return c.metric.Similarity(c.normalizer.Normalize(text1), c.normalizer.Normalize(text2))
}

// foldRaw lowercases a name and collapses its whitespace
func foldRaw(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// HasSalientOverlap reports whether two token lists share at least one salient token
func HasSalientOverlap(tokens1, tokens2 []string) bool {
	a, b := salientTokens(tokens1), salientTokens(tokens2)
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// TokenSimilarity is the weighted Jaccard index of two token sets.
// Longer tokens carry more weight. Two empty sets score 1 only when the names were equal.
func TokenSimilarity(tokens1, tokens2 []string, namesEqual bool) float64 {
	if len(tokens1) == 0 && len(tokens2) == 0 {
		if namesEqual {
			return 1
		}
		return 0
	}

	set1 := make(map[string]struct{}, len(tokens1))
	for _, t := range tokens1 {
		set1[t] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(tokens2))
	for _, t := range tokens2 {
		set2[t] = struct{}{}
	}

	var shared, union float64
	for t := range set1 {
		union += tokenWeight(t)
		if _, ok := set2[t]; ok {
			shared += tokenWeight(t)
		}
	}
	for t := range set2 {
		if _, ok := set1[t]; !ok {
			union += tokenWeight(t)
		}
	}
	if union == 0 {
		return 0
	}
	return shared / union
}

func tokenWeight(token string) float64 {
	switch n := len([]rune(token)); {
	case n >= 5:
		return weightLongToken
	case n >= 3:
		return weightMediumToken
	default:
		return weightDefault
	}
}

// SizeSimilarity scores two grams-equivalent sizes by relative difference.
// A missing size on either side is neutral.
func SizeSimilarity(size1, size2 *float64) float64 {
	if size1 == nil || size2 == nil {
		return neutralSizeScore
	}
	a, b := *size1, *size2
	if a == b {
		return 1
	}
	larger := math.Max(a, b)
	if larger <= 0 {
		return 0
	}

	diff := math.Abs(a-b) / larger
	for _, band := range sizeBands {
		if diff <= band.maxDiff {
			return band.score
		}
	}
	return 0
}

// CategorySimilarity is 1 for equal categories, ignoring case, and 0 otherwise
func CategorySimilarity(cat1, cat2 string) float64 {
	if strings.EqualFold(strings.TrimSpace(cat1), strings.TrimSpace(cat2)) {
		return 1
	}
	return 0
}
