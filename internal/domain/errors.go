package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrItemNotFound is returned when no inventory item matches an exact lookup
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrMappingNotFound is returned when a vendor item has no stored mapping
	ErrMappingNotFound = errors.New("vendor item mapping not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrStoreUnavailable is returned when the inventory store cannot be reached
	ErrStoreUnavailable = errors.New("inventory store unavailable")

	// ErrInvalidMatchConfig is returned when match configuration violates its invariants
	ErrInvalidMatchConfig = errors.New("invalid match configuration")

	// ErrUnparseablePackSize is returned when a pack size string matches no known notation
	ErrUnparseablePackSize = errors.New("unparseable pack size")

	// ErrMissingPackSize is returned when pricing is requested without a pack size
	ErrMissingPackSize = errors.New("pack size is required")

	// ErrInvalidPrice is returned when a pack price is zero or negative
	ErrInvalidPrice = errors.New("pack price must be greater than zero")

	// ErrUnknownUnit is returned when a unit is not in any conversion table
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrIncompatibleUnits is returned when two units belong to different categories
	ErrIncompatibleUnits = errors.New("incompatible units")
)
