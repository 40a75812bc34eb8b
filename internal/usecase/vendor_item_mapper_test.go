package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kitchenledger/backend/internal/domain"
)

func newTestMapper(t *testing.T, items *MockCandidateRepository, mappings *MockMappingRepository) *VendorItemMapper {
	t.Helper()
	cfg := domain.DefaultMatchConfig()
	return NewVendorItemMapper(cfg, newTestMatcher(t, items), items, mappings, zaptest.NewLogger(t))
}

func TestDecide(t *testing.T) {
	thresholds := domain.DefaultMatchConfig().Thresholds()
	item := domain.CandidateItem{ID: "item-1", Name: "Chicken Breast"}
	scored := func(s float64) *domain.ScoredCandidate {
		return &domain.ScoredCandidate{Item: item, Score: domain.NewSimilarityScore(s)}
	}
	existing := &domain.VendorMapping{
		ID:              "map-1",
		InventoryItemID: "item-9",
		Confidence:      0.9,
		MatchMethod:     domain.MethodFuzzy,
		NeedsReview:     true,
	}

	tests := []struct {
		name        string
		in          MappingInputs
		state       domain.MappingState
		itemID      string
		confidence  float64
		method      domain.MatchMethod
		needsReview bool
		createItem  bool
	}{
		{"stored mapping wins", MappingInputs{Existing: existing}, domain.StateExactMappingFound, "item-9", 0.9, domain.MethodFuzzy, true, false},
		{"exact name", MappingInputs{ExactItem: &item}, domain.StateExactNameMatch, "item-1", 1.0, domain.MethodExact, false, false},
		{"auto at threshold", MappingInputs{BestMatch: scored(0.95)}, domain.StateFuzzyAuto, "item-1", 0.95, domain.MethodFuzzy, false, false},
		{"review just below auto", MappingInputs{BestMatch: scored(0.9499)}, domain.StateFuzzyReview, "item-1", 0.9499, domain.MethodFuzzy, true, false},
		{"review at threshold", MappingInputs{BestMatch: scored(0.85)}, domain.StateFuzzyReview, "item-1", 0.85, domain.MethodFuzzy, true, false},
		{"weak match creates new", MappingInputs{BestMatch: scored(0.8499)}, domain.StateNoMatch, "", 1.0, domain.MethodNew, true, true},
		{"nothing found", MappingInputs{}, domain.StateNoMatch, "", 1.0, domain.MethodNew, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(thresholds, tt.in)

			if got.State != tt.state {
				t.Errorf("State = %q, want %q", got.State, tt.state)
			}
			if tt.itemID == "" && got.Item != nil {
				t.Errorf("Item = %+v, want nil", got.Item)
			}
			if tt.itemID != "" && (got.Item == nil || got.Item.ID != tt.itemID) {
				t.Errorf("Item = %+v, want ID %q", got.Item, tt.itemID)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.confidence)
			}
			if got.Method != tt.method {
				t.Errorf("Method = %q, want %q", got.Method, tt.method)
			}
			if got.NeedsReview != tt.needsReview {
				t.Errorf("NeedsReview = %v, want %v", got.NeedsReview, tt.needsReview)
			}
			if got.CreateItem != tt.createItem {
				t.Errorf("CreateItem = %v, want %v", got.CreateItem, tt.createItem)
			}
			if got.NeedsWrite() == (tt.state == domain.StateExactMappingFound) {
				t.Errorf("NeedsWrite = %v for state %q", got.NeedsWrite(), got.State)
			}
		})
	}
}

func TestVendorItemMapper_Resolve(t *testing.T) {
	ctx := context.Background()
	chicken := domain.CandidateItem{
		ID:             "chicken",
		Name:           "Chicken Breast Boneless 10lb",
		NormalizedName: "chicken breast boneless 10 lb",
	}

	t.Run("stored mapping short-circuits", func(t *testing.T) {
		items := NewMockCandidateRepository(chicken)
		mappings := NewMockMappingRepository()
		mapper := newTestMapper(t, items, mappings)
		key := mapper.MappingKey("SYSCO Chkn Brst")
		mappings.mappings[mappingKey("u1", "v1", key)] = domain.VendorMapping{
			ID: "m1", InventoryItemID: "chicken", Confidence: 1, MatchMethod: domain.MethodExact,
		}

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "SYSCO Chkn Brst"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != domain.StateExactMappingFound {
			t.Errorf("State = %q, want %q", got.State, domain.StateExactMappingFound)
		}
		if got.Existing == nil || got.Existing.ID != "m1" {
			t.Errorf("Existing = %+v, want mapping m1", got.Existing)
		}
	})

	t.Run("mappings are per vendor", func(t *testing.T) {
		items := NewMockCandidateRepository()
		mappings := NewMockMappingRepository()
		mapper := newTestMapper(t, items, mappings)
		mappings.mappings[mappingKey("u1", "other", mapper.MappingKey("Olive Oil"))] = domain.VendorMapping{ID: "m1"}

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "Olive Oil"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State == domain.StateExactMappingFound {
			t.Error("mapping from another vendor should not be used")
		}
	})

	t.Run("exact normalized name", func(t *testing.T) {
		mapper := newTestMapper(t, NewMockCandidateRepository(chicken), NewMockMappingRepository())

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "Chicken Breast Boneless 10 LB"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != domain.StateExactNameMatch {
			t.Errorf("State = %q, want %q", got.State, domain.StateExactNameMatch)
		}
		if got.Item == nil || got.Item.ID != "chicken" {
			t.Errorf("Item = %+v, want chicken", got.Item)
		}
	})

	t.Run("fuzzy auto match", func(t *testing.T) {
		mapper := newTestMapper(t, NewMockCandidateRepository(chicken), NewMockMappingRepository())

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "Boneless Chicken Breast 10 LB"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != domain.StateFuzzyAuto {
			t.Errorf("State = %q, want %q", got.State, domain.StateFuzzyAuto)
		}
		if got.Match == nil || got.Match.Item.ID != "chicken" {
			t.Errorf("Match = %+v, want chicken", got.Match)
		}
	})

	t.Run("no candidate creates new", func(t *testing.T) {
		mapper := newTestMapper(t, NewMockCandidateRepository(chicken), NewMockMappingRepository())

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "Extra Virgin Olive Oil"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != domain.StateNoMatch || !got.CreateItem || !got.NeedsReview {
			t.Errorf("decision = %+v, want no_match with create and review", got)
		}
	})

	t.Run("blank description", func(t *testing.T) {
		mapper := newTestMapper(t, NewMockCandidateRepository(), NewMockMappingRepository())
		_, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "   "})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("description without matchable words", func(t *testing.T) {
		// an item keyed by the raw text must not be picked up by name or fuzzy lookup
		items := NewMockCandidateRepository(domain.CandidateItem{ID: "x", Name: "Sysco Classic", NormalizedName: "sysco classic"})
		mapper := newTestMapper(t, items, NewMockMappingRepository())

		for _, desc := range []string{"SYSCO CLASSIC", " !! "} {
			got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: desc})
			if err != nil {
				t.Fatalf("%q: unexpected error: %v", desc, err)
			}
			if got.State != domain.StateNoMatch || !got.CreateItem || !got.NeedsReview {
				t.Errorf("%q: decision = %+v, want no_match with create and review", desc, got)
			}
		}

		if key := mapper.MappingKey("SYSCO  Classic"); key != "sysco classic" {
			t.Errorf("MappingKey = %q, want folded raw text", key)
		}
	})

	t.Run("description without matchable words uses stored mapping", func(t *testing.T) {
		mappings := NewMockMappingRepository()
		mappings.mappings[mappingKey("u1", "v1", "sysco classic")] = domain.VendorMapping{
			ID:              "m1",
			InventoryItemID: "item-7",
			Confidence:      1,
			MatchMethod:     domain.MethodExact,
		}
		mapper := newTestMapper(t, NewMockCandidateRepository(), mappings)

		got, err := mapper.Resolve(ctx, "u1", "v1", domain.VendorLineItem{Description: "Sysco Classic"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != domain.StateExactMappingFound || got.Item.ID != "item-7" {
			t.Errorf("decision = %+v, want stored mapping to item-7", got)
		}
	})

	t.Run("store failures propagate", func(t *testing.T) {
		line := domain.VendorLineItem{Description: "Chicken Breast"}

		mappings := NewMockMappingRepository()
		mappings.findErr = domain.ErrStoreUnavailable
		_, err := newTestMapper(t, NewMockCandidateRepository(), mappings).Resolve(ctx, "u1", "v1", line)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("mapping lookup error = %v, want ErrStoreUnavailable", err)
		}

		items := NewMockCandidateRepository()
		items.findErr = domain.ErrStoreUnavailable
		_, err = newTestMapper(t, items, NewMockMappingRepository()).Resolve(ctx, "u1", "v1", line)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("name lookup error = %v, want ErrStoreUnavailable", err)
		}

		items = NewMockCandidateRepository()
		items.fetchErr = domain.ErrStoreUnavailable
		_, err = newTestMapper(t, items, NewMockMappingRepository()).Resolve(ctx, "u1", "v1", line)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("fuzzy lookup error = %v, want ErrStoreUnavailable", err)
		}
	})
}
