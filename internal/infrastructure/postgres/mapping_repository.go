package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

var mappingColumns = []string{
	"id", "user_id", "vendor_id", "vendor_description", "normalized_description",
	"inventory_item_id", "confidence", "match_method", "needs_review", "created_at",
}

// MappingRepository implements domain.MappingRepository on PostgreSQL
type MappingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMappingRepository creates a mapping repository
func NewMappingRepository(db *sqlx.DB, log *zap.Logger) *MappingRepository {
	return &MappingRepository{db: db, logger: logger.OrNop(log)}
}

// FindMapping returns the stored mapping for a vendor description
func (r *MappingRepository) FindMapping(ctx context.Context, userID, vendorID, normalizedDescription string) (*domain.VendorMapping, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mappingColumns...).From(mappingsTable)
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("vendor_id", vendorID),
		sb.Equal("normalized_description", normalizedDescription),
	)

	q, args := sb.Build()
	var m domain.VendorMapping
	err := r.db.GetContext(ctx, &m, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMappingNotFound
	}
	if err != nil {
		r.logger.Error("failed to find mapping", zap.String("vendorId", vendorID), zap.Error(err))
		return nil, storeError("find mapping", err)
	}
	return &m, nil
}

// CreateMapping inserts a mapping, replacing the target of an existing one for the same description
func (r *MappingRepository) CreateMapping(ctx context.Context, m domain.VendorMapping) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(mappingsTable).
		Cols(mappingColumns...).
		Values(m.ID, m.UserID, m.VendorID, m.VendorDescription, m.NormalizedDescription,
			m.InventoryItemID, m.Confidence, string(m.MatchMethod), m.NeedsReview, m.CreatedAt)
	ib.SQL(`ON CONFLICT (user_id, vendor_id, normalized_description) DO UPDATE SET
		inventory_item_id = EXCLUDED.inventory_item_id,
		confidence = EXCLUDED.confidence,
		match_method = EXCLUDED.match_method,
		needs_review = EXCLUDED.needs_review`)

	q, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to create mapping", zap.String("mappingId", m.ID), zap.Error(err))
		return storeError("create mapping", err)
	}

	r.logger.Debug("created mapping",
		zap.String("mappingId", m.ID),
		zap.String("vendorId", m.VendorID),
		zap.String("itemId", m.InventoryItemID),
	)
	return nil
}
