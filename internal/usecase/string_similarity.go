package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"
)

// Names accepted by SelectStringSimilarity
const (
	MetricLevenshtein = "levenshtein"
	MetricTrigram     = "trigram"
)

// StringSimilarity scores two normalized strings in [0, 1].
// Implementations must return 1 for identical non-empty strings and 0 when either is empty.
type StringSimilarity interface {
	Similarity(a, b string) float64
	Name() string
}

// LevenshteinSimilarity is the best of the plain and token-sorted edit-distance ratios,
// so word order does not penalize "breast chicken" against "chicken breast".
type LevenshteinSimilarity struct{}

func (LevenshteinSimilarity) Name() string { return MetricLevenshtein }

func (LevenshteinSimilarity) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return math.Max(levenshteinRatio(a, b), levenshteinRatio(tokenSort(a), tokenSort(b)))
}

// TrigramSimilarity is the cosine of the padded character trigram sets
type TrigramSimilarity struct{}

func (TrigramSimilarity) Name() string { return MetricTrigram }

func (TrigramSimilarity) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ta, tb := trigramSet(a), trigramSet(b)
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return float64(shared) / math.Sqrt(float64(len(ta))*float64(len(tb)))
}

// SelectStringSimilarity resolves a metric name once at startup.
// An empty name selects edit-distance ratio; unknown names fall back to trigram similarity.
func SelectStringSimilarity(name string, logger *zap.Logger) StringSimilarity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MetricLevenshtein, "":
		return LevenshteinSimilarity{}
	case MetricTrigram:
		return TrigramSimilarity{}
	default:
		if logger != nil {
			logger.Warn("unknown string similarity metric, using trigram", zap.String("metric", name))
		}
		return TrigramSimilarity{}
	}
}

func levenshteinRatio(a, b string) float64 {
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(a, b))/float64(longest)
}

// tokenSort orders the words of s alphabetically
func tokenSort(s string) string {
	t := strings.Fields(s)
	sort.Strings(t)
	return strings.Join(t, " ")
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	r := []rune(" " + s + " ")
	if len(r) < 3 {
		m[string(r)] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}
