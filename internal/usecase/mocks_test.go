package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kitchenledger/backend/internal/domain"
)

// MockCandidateRepository is a mock implementation of domain.CandidateRepository
type MockCandidateRepository struct {
	mu        sync.Mutex
	items     []domain.CandidateItem
	fetchErr  error
	findErr   error
	createErr error
	lastLimit int
	created   []domain.NewInventoryItem
}

func NewMockCandidateRepository(items ...domain.CandidateItem) *MockCandidateRepository {
	return &MockCandidateRepository{items: items}
}

func (m *MockCandidateRepository) FetchCandidates(ctx context.Context, scope domain.PoolScope, query string, limit int) ([]domain.CandidateItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make([]domain.CandidateItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MockCandidateRepository) FindByNormalizedName(ctx context.Context, scope domain.PoolScope, normalizedName string) (*domain.CandidateItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, it := range m.items {
		if it.NormalizedName == normalizedName {
			found := it
			return &found, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (m *MockCandidateRepository) CreateItem(ctx context.Context, item domain.NewInventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, item)
	m.items = append(m.items, item.Candidate())
	return nil
}

// MockMappingRepository is a mock implementation of domain.MappingRepository
type MockMappingRepository struct {
	mu        sync.Mutex
	mappings  map[string]domain.VendorMapping
	findErr   error
	createErr error
	created   []domain.VendorMapping
}

func NewMockMappingRepository() *MockMappingRepository {
	return &MockMappingRepository{mappings: make(map[string]domain.VendorMapping)}
}

func mappingKey(userID, vendorID, desc string) string {
	return strings.Join([]string{userID, vendorID, desc}, "|")
}

func (m *MockMappingRepository) FindMapping(ctx context.Context, userID, vendorID, normalizedDescription string) (*domain.VendorMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if mp, ok := m.mappings[mappingKey(userID, vendorID, normalizedDescription)]; ok {
		return &mp, nil
	}
	return nil, domain.ErrMappingNotFound
}

func (m *MockMappingRepository) CreateMapping(ctx context.Context, mapping domain.VendorMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.mappings[mappingKey(mapping.UserID, mapping.VendorID, mapping.NormalizedDescription)] = mapping
	m.created = append(m.created, mapping)
	return nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
