package usecase

import (
	"math"
	"testing"

	"github.com/kitchenledger/backend/internal/domain"
)

func newTestCalculator(metric StringSimilarity) *SimilarityCalculator {
	cfg := domain.DefaultMatchConfig()
	return NewSimilarityCalculator(cfg, NewTextNormalizer(cfg), metric)
}

var calculatorItems = []domain.CandidateItem{
	{Name: "Chicken Breast Boneless 10lb", Category: "Protein"},
	{Name: "Boneless Chicken Breast 10 LB", Category: "protein"},
	{Name: "Ground Beef 5lb", Category: "Protein"},
	{Name: "Whole Milk", Category: "Dairy", PackSize: strPtr("4 x 1 gal")},
	{Name: "Sysco Premium Olive Oil", Category: "Pantry"},
	{Name: "Kosher Salt 3 lb"},
	{Name: "---"},
	{Name: "Sysco Premium"},
	{Name: "Choice", Category: "Protein"},
	{Name: "***"},
}

func TestCalculateAdvancedSimilarity_Properties(t *testing.T) {
	for _, metric := range []StringSimilarity{LevenshteinSimilarity{}, TrigramSimilarity{}} {
		calc := newTestCalculator(metric)

		t.Run(metric.Name()+"/identical items score one", func(t *testing.T) {
			for _, item := range calculatorItems {
				if got := calc.CalculateAdvancedSimilarity(item, item); got != 1 {
					t.Errorf("score(%q, itself) = %v, want 1", item.Name, got)
				}
			}
		})

		t.Run(metric.Name()+"/names without matchable words", func(t *testing.T) {
			a := domain.CandidateItem{Name: "SYSCO  Premium "}
			b := domain.CandidateItem{Name: "sysco premium"}
			if got := calc.CalculateAdvancedSimilarity(a, b); got != 1 {
				t.Errorf("score(%q, %q) = %v, want 1", a.Name, b.Name, got)
			}

			other := domain.CandidateItem{Name: "Choice"}
			if got := calc.CalculateAdvancedSimilarity(a, other).Float64(); got >= domain.DefaultMatchConfig().Thresholds().MinSimilarity {
				t.Errorf("score(%q, %q) = %v, want below min similarity", a.Name, other.Name, got)
			}
		})

		t.Run(metric.Name()+"/symmetric and bounded", func(t *testing.T) {
			for _, a := range calculatorItems {
				for _, b := range calculatorItems {
					ab := calc.CalculateAdvancedSimilarity(a, b)
					ba := calc.CalculateAdvancedSimilarity(b, a)
					if ab != ba {
						t.Errorf("score(%q, %q) = %v but reversed = %v", a.Name, b.Name, ab, ba)
					}
					if ab < 0 || ab > 1 {
						t.Errorf("score(%q, %q) = %v out of range", a.Name, b.Name, ab)
					}
				}
			}
		})
	}
}

func TestCalculateAdvancedSimilarity_Ranking(t *testing.T) {
	calc := newTestCalculator(TrigramSimilarity{})
	target := domain.CandidateItem{Name: "Boneless Chicken Breast 10 LB", Category: "Protein"}

	chicken := calc.CalculateAdvancedSimilarity(target, calculatorItems[0])
	beef := calc.CalculateAdvancedSimilarity(target, calculatorItems[2])

	if chicken < 0.85 {
		t.Errorf("chicken score = %v, want >= 0.85", chicken)
	}
	if beef >= chicken {
		t.Errorf("beef score %v should be below chicken score %v", beef, chicken)
	}
}

func TestCalculateAdvancedSimilarity_RoundsToFourDecimals(t *testing.T) {
	calc := newTestCalculator(TrigramSimilarity{})
	got := calc.CalculateAdvancedSimilarity(calculatorItems[0], calculatorItems[2]).Float64()
	if rounded := math.Round(got*10000) / 10000; rounded != got {
		t.Errorf("score %v is not rounded to four decimals", got)
	}
}

func TestCalculateAdvancedSimilarity_UsesPackSize(t *testing.T) {
	calc := newTestCalculator(TrigramSimilarity{})
	a := domain.CandidateItem{Name: "Whole Milk", PackSize: strPtr("1 gal")}
	b := domain.CandidateItem{Name: "Whole Milk", PackSize: strPtr("1 gallon")}
	c := domain.CandidateItem{Name: "Whole Milk Vitamin D", PackSize: strPtr("1 qt")}
	d := domain.CandidateItem{Name: "Whole Milk Vitamin D", PackSize: strPtr("1 gal")}

	if got := calc.CalculateAdvancedSimilarity(a, b); got != 1 {
		t.Errorf("same name and size = %v, want 1", got)
	}
	if calc.CalculateAdvancedSimilarity(a, c) >= calc.CalculateAdvancedSimilarity(a, d) {
		t.Error("matching pack size should score higher than a mismatched one")
	}
}

func TestCalculateSimpleSimilarity(t *testing.T) {
	calc := newTestCalculator(LevenshteinSimilarity{})

	if got := calc.CalculateSimpleSimilarity("Sysco Chicken Breast", "chicken breast"); got != 1 {
		t.Errorf("CalculateSimpleSimilarity = %v, want 1 after normalization", got)
	}
	if got := calc.CalculateSimpleSimilarity("", "chicken"); got != 0 {
		t.Errorf("CalculateSimpleSimilarity with empty = %v, want 0", got)
	}
}

func TestHasSalientOverlap(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name   string
		a, b   string
		wantOK bool
	}{
		{"shared protein word", "Chicken Breast", "Chicken Thigh", true},
		{"only shared size", "Ground Beef 5 lb", "Chicken Breast 5 lb", false},
		{"only short words", "Ox Tail", "Ox Bone", false},
		{"empty", "", "Chicken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasSalientOverlap(n.Tokenize(tt.a), n.Tokenize(tt.b)); got != tt.wantOK {
				t.Errorf("HasSalientOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.wantOK)
			}
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []string
		namesEqual bool
		want       float64
	}{
		{"identical", []string{"chicken", "breast"}, []string{"breast", "chicken"}, false, 1},
		{"one shared long token", []string{"chicken", "breast"}, []string{"chicken", "thigh"}, false, 2.0 / 6.0},
		{"weighted by length", []string{"chicken", "ham"}, []string{"chicken"}, false, 2.0 / 3.5},
		{"disjoint", []string{"beef"}, []string{"pork"}, false, 0},
		{"both empty and equal names", nil, nil, true, 1},
		{"both empty and different names", nil, nil, false, 0},
		{"one empty", []string{"beef"}, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSimilarity(tt.a, tt.b, tt.namesEqual)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSizeSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want float64
	}{
		{"missing left", nil, floatPtr(10), 0.5},
		{"missing right", floatPtr(10), nil, 0.5},
		{"both missing", nil, nil, 0.5},
		{"exact", floatPtr(100), floatPtr(100), 1},
		{"within five percent", floatPtr(100), floatPtr(96), 1},
		{"within fifteen percent", floatPtr(100), floatPtr(90), 0.8},
		{"within thirty percent", floatPtr(100), floatPtr(75), 0.5},
		{"within fifty percent", floatPtr(100), floatPtr(60), 0.3},
		{"far apart", floatPtr(100), floatPtr(40), 0},
		{"both zero", floatPtr(0), floatPtr(0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SizeSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("SizeSimilarity = %v, want %v", got, tt.want)
			}
			if got := SizeSimilarity(tt.b, tt.a); got != tt.want {
				t.Errorf("SizeSimilarity reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategorySimilarity(t *testing.T) {
	if got := CategorySimilarity("Protein", " protein "); got != 1 {
		t.Errorf("case-insensitive match = %v, want 1", got)
	}
	if got := CategorySimilarity("Protein", "Dairy"); got != 0 {
		t.Errorf("different categories = %v, want 0", got)
	}
	if got := CategorySimilarity("", ""); got != 1 {
		t.Errorf("both empty = %v, want 1", got)
	}
}
