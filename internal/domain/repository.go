package domain

import (
	"context"
	"time"
)

// MaxCandidatePool is the hard cap on candidates fetched for one match call
const MaxCandidatePool = 50

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CandidateRepository is the inventory store the matcher reads candidates from
type CandidateRepository interface {
	// FetchCandidates returns at most limit items in scope, most similar to query first
	FetchCandidates(ctx context.Context, scope PoolScope, query string, limit int) ([]CandidateItem, error)
	// FindByNormalizedName returns ErrItemNotFound when no item has exactly that name
	FindByNormalizedName(ctx context.Context, scope PoolScope, normalizedName string) (*CandidateItem, error)
	CreateItem(ctx context.Context, item NewInventoryItem) error
}

// MappingRepository stores vendor description to canonical item mappings
type MappingRepository interface {
	// FindMapping returns ErrMappingNotFound when the vendor description is unmapped
	FindMapping(ctx context.Context, userID, vendorID, normalizedDescription string) (*VendorMapping, error)
	CreateMapping(ctx context.Context, mapping VendorMapping) error
}
