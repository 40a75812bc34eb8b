package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// weightSumTolerance bounds how far the weights may drift from 1.0
const weightSumTolerance = 1e-3

// Weights of the similarity sub-scores
type Weights struct {
	Name     float64 `mapstructure:"name_similarity" json:"nameSimilarity"`
	Token    float64 `mapstructure:"token_similarity" json:"tokenSimilarity"`
	Size     float64 `mapstructure:"size_similarity" json:"sizeSimilarity"`
	Category float64 `mapstructure:"category_similarity" json:"categorySimilarity"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Name + w.Token + w.Size + w.Category
}

// Thresholds drive the match funnel and recommendations.
// They must satisfy AutoMatch > ReviewMatch > MinSimilarity > TrigramFilter.
type Thresholds struct {
	AutoMatch     float64 `mapstructure:"auto_match" json:"autoMatch"`
	ReviewMatch   float64 `mapstructure:"review_match" json:"reviewMatch"`
	MinSimilarity float64 `mapstructure:"min_similarity" json:"minSimilarity"`
	TrigramFilter float64 `mapstructure:"trigram_filter" json:"trigramFilter"`
}

// MatchConfigSpec is the raw, unvalidated form of a MatchConfig as read from a file
type MatchConfigSpec struct {
	Version     string             `mapstructure:"version"`
	Weights     Weights            `mapstructure:"weights"`
	Thresholds  Thresholds         `mapstructure:"thresholds"`
	Stopwords   []string           `mapstructure:"stopwords"`
	BrandTokens []string           `mapstructure:"brand_tokens"`
	UnitAliases map[string]string  `mapstructure:"unit_aliases"`
	SizeToGrams map[string]float64 `mapstructure:"size_to_grams"`
}

// MatchConfig is the validated, read-only matching configuration.
// Build it once with NewMatchConfig and share the pointer; nothing mutates it.
type MatchConfig struct {
	version     string
	weights     Weights
	thresholds  Thresholds
	stopwords   map[string]struct{}
	brandTokens []string
	unitAliases map[string]string
	sizeToGrams map[string]float64
}

// NewMatchConfig validates spec and returns an immutable MatchConfig
func NewMatchConfig(spec MatchConfigSpec) (*MatchConfig, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cfg := &MatchConfig{
		version:     spec.Version,
		weights:     spec.Weights,
		thresholds:  spec.Thresholds,
		stopwords:   make(map[string]struct{}, len(spec.Stopwords)),
		unitAliases: make(map[string]string, len(spec.UnitAliases)),
		sizeToGrams: make(map[string]float64, len(spec.SizeToGrams)),
	}
	for _, w := range spec.Stopwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			cfg.stopwords[w] = struct{}{}
		}
	}
	for _, b := range spec.BrandTokens {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			cfg.brandTokens = append(cfg.brandTokens, b)
		}
	}
	// longest phrase first so "us foods" is stripped before "us"
	sort.SliceStable(cfg.brandTokens, func(i, j int) bool {
		return len(cfg.brandTokens[i]) > len(cfg.brandTokens[j])
	})
	for k, v := range spec.UnitAliases {
		cfg.unitAliases[strings.ToLower(k)] = strings.ToLower(v)
	}
	for k, v := range spec.SizeToGrams {
		cfg.sizeToGrams[strings.ToLower(k)] = v
	}

	return cfg, nil
}

// MustMatchConfig is like NewMatchConfig but panics on an invalid spec
func MustMatchConfig(spec MatchConfigSpec) *MatchConfig {
	cfg, err := NewMatchConfig(spec)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the weight-sum and threshold-ordering invariants
func (s MatchConfigSpec) Validate() error {
	w := s.Weights
	for name, v := range map[string]float64{
		"name_similarity":     w.Name,
		"token_similarity":    w.Token,
		"size_similarity":     w.Size,
		"category_similarity": w.Category,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s must be non-negative, got %v", ErrInvalidMatchConfig, name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights must sum to 1.0, got %.4f", ErrInvalidMatchConfig, sum)
	}

	t := s.Thresholds
	if t.AutoMatch > 1 || t.TrigramFilter <= 0 {
		return fmt.Errorf("%w: thresholds must lie in (0, 1]", ErrInvalidMatchConfig)
	}
	if !(t.AutoMatch > t.ReviewMatch && t.ReviewMatch > t.MinSimilarity && t.MinSimilarity > t.TrigramFilter) {
		return fmt.Errorf("%w: thresholds must satisfy auto_match > review_match > min_similarity > trigram_filter, got %.2f > %.2f > %.2f > %.2f",
			ErrInvalidMatchConfig, t.AutoMatch, t.ReviewMatch, t.MinSimilarity, t.TrigramFilter)
	}

	for unit, grams := range s.SizeToGrams {
		if grams <= 0 {
			return fmt.Errorf("%w: size_to_grams[%s] must be positive", ErrInvalidMatchConfig, unit)
		}
	}
	return nil
}

func (c *MatchConfig) Version() string        { return c.version }
func (c *MatchConfig) Weights() Weights       { return c.weights }
func (c *MatchConfig) Thresholds() Thresholds { return c.thresholds }

// IsStopword reports whether w is dropped during tokenization
func (c *MatchConfig) IsStopword(w string) bool {
	_, ok := c.stopwords[w]
	return ok
}

// BrandTokens returns the brand/vendor phrases stripped during normalization, longest first
func (c *MatchConfig) BrandTokens() []string {
	out := make([]string, len(c.brandTokens))
	copy(out, c.brandTokens)
	return out
}

// CanonicalUnit maps a unit spelling to its canonical form
func (c *MatchConfig) CanonicalUnit(w string) (string, bool) {
	u, ok := c.unitAliases[w]
	return u, ok
}

// GramsPer returns the grams-equivalent of one unit for size comparison
func (c *MatchConfig) GramsPer(unit string) (float64, bool) {
	g, ok := c.sizeToGrams[unit]
	return g, ok
}

// DefaultMatchConfigSpec returns the built-in matching configuration
func DefaultMatchConfigSpec() MatchConfigSpec {
	return MatchConfigSpec{
		Version: "1",
		Weights: Weights{
			Name:     0.40,
			Token:    0.35,
			Size:     0.15,
			Category: 0.10,
		},
		Thresholds: Thresholds{
			AutoMatch:     0.95,
			ReviewMatch:   0.85,
			MinSimilarity: 0.70,
			TrigramFilter: 0.30,
		},
		Stopwords: []string{
			"a", "an", "and", "the", "of", "with", "for", "in", "or", "per", "to",
			"lb", "oz", "kg", "g", "gal", "qt", "pt", "l", "ml", "fl",
			"ea", "ct", "cs", "dz", "pk", "bag", "box", "bulk", "approx", "avg",
		},
		BrandTokens: []string{
			"sysco", "us foods", "usfoods", "gfs", "gordon food service",
			"restaurant depot", "pfg", "performance food", "chefs warehouse",
			"premium", "choice", "select", "fancy", "quality", "classic",
		},
		UnitAliases: map[string]string{
			"lbs": "lb", "pound": "lb", "pounds": "lb",
			"ounce": "oz", "ounces": "oz",
			"kilogram": "kg", "kilograms": "kg", "kgs": "kg",
			"gram": "g", "grams": "g", "gr": "g",
			"gallon": "gal", "gallons": "gal",
			"quart": "qt", "quarts": "qt",
			"pint": "pt", "pints": "pt",
			"liter": "l", "liters": "l", "litre": "l", "litres": "l", "ltr": "l",
			"milliliter": "ml", "milliliters": "ml",
			"each": "ea", "count": "ct",
			"case": "cs", "cases": "cs",
			"dozen": "dz", "doz": "dz",
			"pack": "pk", "pkg": "pk",
		},
		SizeToGrams: map[string]float64{
			"lb":  453.592,
			"oz":  28.3495,
			"kg":  1000,
			"g":   1,
			"gal": 3785.41,
			"qt":  946.353,
			"l":   1000,
		},
	}
}

// DefaultMatchConfig returns the validated built-in configuration
func DefaultMatchConfig() *MatchConfig {
	return MustMatchConfig(DefaultMatchConfigSpec())
}
