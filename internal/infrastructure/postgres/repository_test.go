package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kitchenledger/backend/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

var itemRowColumns = []string{"id", "name", "normalized_name", "category", "pack_size", "unit_price"}

func TestItemRepository_FetchCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(db, zaptest.NewLogger(t))

	rows := sqlmock.NewRows(itemRowColumns).
		AddRow("i1", "Chicken Breast 10lb", "chicken breast 10 lb", "Protein", "4 x 10 lb", 0.1875).
		AddRow("i2", "Chicken Thigh", "chicken thigh", "Protein", nil, nil)
	mock.ExpectQuery(`SELECT id, name, normalized_name, category, pack_size, unit_price FROM inventory_items WHERE user_id = \$1 AND lower\(category\) = \$2 ORDER BY similarity\(normalized_name, \$3\) DESC, name LIMIT`).
		WillReturnRows(rows)

	items, err := repo.FetchCandidates(context.Background(), domain.PoolScope{UserID: "u1", Category: "Protein"}, "chicken breast", 100)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "i1", items[0].ID)
	require.NotNil(t, items[0].PackSize)
	assert.Equal(t, "4 x 10 lb", *items[0].PackSize)
	require.NotNil(t, items[0].UnitPrice)
	assert.Nil(t, items[1].PackSize)
	assert.Nil(t, items[1].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_FetchCandidates_WithoutCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(`FROM inventory_items WHERE user_id = \$1 ORDER BY`).
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	items, err := repo.FetchCandidates(context.Background(), domain.PoolScope{UserID: "u1"}, "milk", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_FetchCandidates_StoreError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(`FROM inventory_items`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FetchCandidates(context.Background(), domain.PoolScope{UserID: "u1"}, "milk", 10)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable), "error = %v", err)
}

func TestItemRepository_FindByNormalizedName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewItemRepository(db, zaptest.NewLogger(t))

		mock.ExpectQuery(`FROM inventory_items WHERE user_id = \$1 AND normalized_name = \$2`).
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow("i1", "Whole Milk", "whole milk", "", nil, nil))

		item, err := repo.FindByNormalizedName(context.Background(), domain.PoolScope{UserID: "u1"}, "whole milk")
		require.NoError(t, err)
		assert.Equal(t, "i1", item.ID)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewItemRepository(db, zaptest.NewLogger(t))

		mock.ExpectQuery(`FROM inventory_items`).WillReturnRows(sqlmock.NewRows(itemRowColumns))

		_, err := repo.FindByNormalizedName(context.Background(), domain.PoolScope{UserID: "u1"}, "whole milk")
		assert.True(t, errors.Is(err, domain.ErrItemNotFound), "error = %v", err)
	})
}

func TestItemRepository_CreateItem(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(db, zaptest.NewLogger(t))

	mock.ExpectExec(`INSERT INTO inventory_items \(id, user_id, name, normalized_name, category, pack_size, unit_price, created_at\) VALUES`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pack := "6 x 1 l"
	err := repo.CreateItem(context.Background(), domain.NewInventoryItem{
		ID: "i1", UserID: "u1", Name: "Olive Oil", NormalizedName: "olive oil", PackSize: &pack, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var mappingRowColumns = []string{
	"id", "user_id", "vendor_id", "vendor_description", "normalized_description",
	"inventory_item_id", "confidence", "match_method", "needs_review", "created_at",
}

func TestMappingRepository_FindMapping(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMappingRepository(db, zaptest.NewLogger(t))

		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectQuery(`FROM vendor_item_mappings WHERE user_id = \$1 AND vendor_id = \$2 AND normalized_description = \$3`).
			WillReturnRows(sqlmock.NewRows(mappingRowColumns).
				AddRow("m1", "u1", "v1", "CHKN BRST", "chkn brst", "i1", 0.97, "fuzzy", false, created))

		m, err := repo.FindMapping(context.Background(), "u1", "v1", "chkn brst")
		require.NoError(t, err)
		assert.Equal(t, "i1", m.InventoryItemID)
		assert.Equal(t, domain.MethodFuzzy, m.MatchMethod)
		assert.Equal(t, 0.97, m.Confidence)
		assert.True(t, created.Equal(m.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMappingRepository(db, zaptest.NewLogger(t))

		mock.ExpectQuery(`FROM vendor_item_mappings`).WillReturnRows(sqlmock.NewRows(mappingRowColumns))

		_, err := repo.FindMapping(context.Background(), "u1", "v1", "chkn brst")
		assert.True(t, errors.Is(err, domain.ErrMappingNotFound), "error = %v", err)
	})

	t.Run("store error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMappingRepository(db, zaptest.NewLogger(t))

		mock.ExpectQuery(`FROM vendor_item_mappings`).WillReturnError(errors.New("timeout"))

		_, err := repo.FindMapping(context.Background(), "u1", "v1", "chkn brst")
		assert.True(t, errors.Is(err, domain.ErrStoreUnavailable), "error = %v", err)
	})
}

func TestMappingRepository_CreateMapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMappingRepository(db, zaptest.NewLogger(t))

	mock.ExpectExec(`INSERT INTO vendor_item_mappings .* ON CONFLICT \(user_id, vendor_id, normalized_description\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateMapping(context.Background(), domain.VendorMapping{
		ID: "m1", UserID: "u1", VendorID: "v1", VendorDescription: "CHKN BRST", NormalizedDescription: "chkn brst",
		InventoryItemID: "i1", Confidence: 1, MatchMethod: domain.MethodExact, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMockDB(t)
	for range schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
