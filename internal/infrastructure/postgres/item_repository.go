package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

var itemColumns = []string{"id", "name", "normalized_name", "category", "pack_size", "unit_price"}

// ItemRepository implements domain.CandidateRepository on PostgreSQL
type ItemRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewItemRepository creates an item repository
func NewItemRepository(db *sqlx.DB, log *zap.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger.OrNop(log)}
}

func scopedItems(scope domain.PoolScope) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns...).From(itemsTable)
	sb.Where(sb.Equal("user_id", scope.UserID))
	if c := strings.TrimSpace(scope.Category); c != "" {
		sb.Where(sb.Equal("lower(category)", strings.ToLower(c)))
	}
	return sb
}

// FetchCandidates returns up to limit items in scope ordered by trigram similarity to query
func (r *ItemRepository) FetchCandidates(ctx context.Context, scope domain.PoolScope, query string, limit int) ([]domain.CandidateItem, error) {
	if limit <= 0 || limit > domain.MaxCandidatePool {
		limit = domain.MaxCandidatePool
	}

	sb := scopedItems(scope)
	sb.OrderBy("similarity(normalized_name, " + sb.Var(query) + ") DESC", "name").Limit(limit)

	q, args := sb.Build()
	var items []domain.CandidateItem
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		r.logger.Error("failed to fetch candidates", zap.String("userId", scope.UserID), zap.Error(err))
		return nil, storeError("fetch candidates", err)
	}

	r.logger.Debug("fetched candidates", zap.String("userId", scope.UserID), zap.Int("count", len(items)))
	return items, nil
}

// FindByNormalizedName returns the item with exactly that normalized name
func (r *ItemRepository) FindByNormalizedName(ctx context.Context, scope domain.PoolScope, normalizedName string) (*domain.CandidateItem, error) {
	sb := scopedItems(scope)
	sb.Where(sb.Equal("normalized_name", normalizedName)).OrderBy("created_at").Limit(1)

	q, args := sb.Build()
	var item domain.CandidateItem
	err := r.db.GetContext(ctx, &item, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		r.logger.Error("failed to find item by name", zap.String("name", normalizedName), zap.Error(err))
		return nil, storeError("find item", err)
	}
	return &item, nil
}

// CreateItem inserts a new canonical item
func (r *ItemRepository) CreateItem(ctx context.Context, item domain.NewInventoryItem) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(itemsTable).
		Cols("id", "user_id", "name", "normalized_name", "category", "pack_size", "unit_price", "created_at").
		Values(item.ID, item.UserID, item.Name, item.NormalizedName, item.Category, item.PackSize, item.UnitPrice, item.CreatedAt)

	q, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to create item", zap.String("itemId", item.ID), zap.Error(err))
		return storeError("create item", err)
	}

	r.logger.Debug("created item", zap.String("itemId", item.ID), zap.String("name", item.NormalizedName))
	return nil
}
