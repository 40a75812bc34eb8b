package usecase

import (
	"math"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestStringSimilarity_Contract(t *testing.T) {
	metrics := []StringSimilarity{LevenshteinSimilarity{}, TrigramSimilarity{}}
	pairs := [][2]string{
		{"chicken breast", "chicken thigh"},
		{"ground beef 5 lb", "ground beef 10 lb"},
		{"olive oil", "canola oil"},
		{"abc", "xyz"},
	}

	for _, m := range metrics {
		t.Run(m.Name(), func(t *testing.T) {
			if got := m.Similarity("chicken breast", "chicken breast"); got != 1 {
				t.Errorf("identical strings = %v, want 1", got)
			}
			if got := m.Similarity("", "chicken"); got != 0 {
				t.Errorf("empty left = %v, want 0", got)
			}
			if got := m.Similarity("chicken", ""); got != 0 {
				t.Errorf("empty right = %v, want 0", got)
			}
			if got := m.Similarity("", ""); got != 0 {
				t.Errorf("both empty = %v, want 0", got)
			}

			for _, p := range pairs {
				ab := m.Similarity(p[0], p[1])
				ba := m.Similarity(p[1], p[0])
				if math.Abs(ab-ba) > 1e-12 {
					t.Errorf("not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
				}
				if ab < 0 || ab > 1 {
					t.Errorf("out of range for %q/%q: %v", p[0], p[1], ab)
				}
			}
		})
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	m := LevenshteinSimilarity{}

	t.Run("edit distance ratio", func(t *testing.T) {
		got := m.Similarity("kitten", "sitting")
		want := 1 - 3.0/7.0
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Similarity = %v, want %v", got, want)
		}
	})

	t.Run("word order does not matter", func(t *testing.T) {
		if got := m.Similarity("breast chicken", "chicken breast"); got != 1 {
			t.Errorf("Similarity = %v, want 1", got)
		}
	})
}

func TestTrigramSimilarity(t *testing.T) {
	m := TrigramSimilarity{}

	if got := m.Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings = %v, want 0", got)
	}

	near := m.Similarity("chicken breast", "chicken breasts")
	far := m.Similarity("chicken breast", "ground beef")
	if near <= far {
		t.Errorf("expected near-duplicate (%v) to beat unrelated (%v)", near, far)
	}
}

func TestTrigramSet(t *testing.T) {
	got := trigramSet("ab")
	for _, g := range []string{" ab", "ab "} {
		if _, ok := got[g]; !ok {
			t.Errorf("trigramSet(\"ab\") missing %q", g)
		}
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if len(trigramSet("")) != 0 {
		t.Error("empty string should have no trigrams")
	}
}

func TestSelectStringSimilarity(t *testing.T) {
	log := zaptest.NewLogger(t)

	tests := []struct {
		name string
		want string
	}{
		{"levenshtein", MetricLevenshtein},
		{"Levenshtein", MetricLevenshtein},
		{"trigram", MetricTrigram},
		{"", MetricLevenshtein},
		{"  ", MetricLevenshtein},
		{"soundex", MetricTrigram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectStringSimilarity(tt.name, log).Name(); got != tt.want {
				t.Errorf("SelectStringSimilarity(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	t.Run("calculator without a metric uses edit distance", func(t *testing.T) {
		calc := newTestCalculator(nil)
		if got := calc.metric.Name(); got != MetricLevenshtein {
			t.Errorf("default metric = %q, want %q", got, MetricLevenshtein)
		}
	})
}
