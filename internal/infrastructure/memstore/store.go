// Package memstore keeps inventory items and vendor mappings in memory.
// It backs the server when no database is configured and is used in tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"

	"github.com/kitchenledger/backend/internal/domain"
)

// Store implements domain.CandidateRepository and domain.MappingRepository
type Store struct {
	mu       sync.RWMutex
	items    map[string][]domain.CandidateItem // by user
	mappings map[mappingKey]domain.VendorMapping
}

type mappingKey struct {
	userID, vendorID, description string
}

// New creates an empty store
func New() *Store {
	return &Store{
		items:    make(map[string][]domain.CandidateItem),
		mappings: make(map[mappingKey]domain.VendorMapping),
	}
}

func inScope(item domain.CandidateItem, scope domain.PoolScope) bool {
	c := strings.TrimSpace(scope.Category)
	return c == "" || strings.EqualFold(item.Category, c)
}

// FetchCandidates returns up to limit items in scope, closest to query by Jaro-Winkler first
func (s *Store) FetchCandidates(ctx context.Context, scope domain.PoolScope, query string, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > domain.MaxCandidatePool {
		limit = domain.MaxCandidatePool
	}

	s.mu.RLock()
	type ranked struct {
		item  domain.CandidateItem
		score float64
	}
	var pool []ranked
	for _, it := range s.items[scope.UserID] {
		if inScope(it, scope) {
			pool = append(pool, ranked{item: it, score: matchr.JaroWinkler(query, it.NormalizedName, false)})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].item.Name < pool[j].item.Name
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}

	out := make([]domain.CandidateItem, len(pool))
	for i, r := range pool {
		out[i] = r.item
	}
	return out, nil
}

// FindByNormalizedName returns the first item created with exactly that normalized name
func (s *Store) FindByNormalizedName(ctx context.Context, scope domain.PoolScope, normalizedName string) (*domain.CandidateItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items[scope.UserID] {
		if it.NormalizedName == normalizedName && inScope(it, scope) {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

// CreateItem stores a new item for its user
func (s *Store) CreateItem(ctx context.Context, item domain.NewInventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.UserID] = append(s.items[item.UserID], item.Candidate())
	return nil
}

// FindMapping returns the mapping stored for a vendor description
func (s *Store) FindMapping(ctx context.Context, userID, vendorID, normalizedDescription string) (*domain.VendorMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[mappingKey{userID, vendorID, normalizedDescription}]
	if !ok {
		return nil, domain.ErrMappingNotFound
	}
	return &m, nil
}

// CreateMapping stores a mapping, replacing any previous one for the same description
func (s *Store) CreateMapping(ctx context.Context, m domain.VendorMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings[mappingKey{m.UserID, m.VendorID, m.NormalizedDescription}] = m
	return nil
}

// Len returns the number of items stored for a user
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[userID])
}
