package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/repo"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/pagination"
)

// Repository manages persistence for inventory transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryTransaction) error
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.InventoryTransaction, error)
	ListRecent(ctx context.Context, limit int) ([]models.InventoryTransaction, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	DeleteByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryTransaction) error {
	return r.DB(ctx).Create(entry).Error
}

// ListByItem returns the item's history newest first. The cursor key is the
// created_at of the last row already seen.
func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.InventoryTransaction, error) {
	query := r.DB(ctx).
		Preload("User").
		Where("item_id = ?", itemID)
	if cursor != nil {
		ts, err := pagination.ParseTimeKey(cursor.Key)
		if err != nil {
			return nil, err
		}
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", ts, ts, cursor.ID)
	}
	var entries []models.InventoryTransaction
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.InventoryTransaction, error) {
	var entries []models.InventoryTransaction
	if err := r.DB(ctx).
		Preload("Item").
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountBetween counts entries with from <= created_at < to.
func (r *repository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	if err := r.DB(ctx).
		Model(&models.InventoryTransaction{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) DeleteByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("item_id = ?", itemID).Delete(&models.InventoryTransaction{})
	return res.RowsAffected, res.Error
}
