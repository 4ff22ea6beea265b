package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/repo"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// Repository manages persistence for inventory alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListSweepCandidates(ctx context.Context) ([]uuid.UUID, error)
	ListUnresolvedByItem(ctx context.Context, itemID uuid.UUID) ([]models.InventoryAlert, error)
	ExistsUnresolved(ctx context.Context, itemID uuid.UUID, alertType enums.AlertType) (bool, error)
	Create(ctx context.Context, alert *models.InventoryAlert) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	UpdateMessage(ctx context.Context, id uuid.UUID, message string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryAlert, error)
	MarkResolved(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	ListUnresolved(ctx context.Context, limit int) ([]models.InventoryAlert, error)
	ListResolved(ctx context.Context, limit int) ([]models.InventoryAlert, error)
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns an alerts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) LockItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.ForUpdate(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListSweepCandidates returns the ids of items at or below their reorder level.
func (r *repository) ListSweepCandidates(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.DB(ctx).
		Model(&models.Item{}).
		Where("quantity <= reorder_level").
		Order("name ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListUnresolvedByItem(ctx context.Context, itemID uuid.UUID) ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	if err := r.DB(ctx).
		Where("item_id = ? AND is_resolved = ?", itemID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) ExistsUnresolved(ctx context.Context, itemID uuid.UUID, alertType enums.AlertType) (bool, error) {
	var count int64
	if err := r.DB(ctx).
		Model(&models.InventoryAlert{}).
		Where("item_id = ? AND alert_type = ? AND is_resolved = ?", itemID, alertType, false).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Create(ctx context.Context, alert *models.InventoryAlert) error {
	return r.DB(ctx).Create(alert).Error
}

func (r *repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Where("id IN ?", ids).Delete(&models.InventoryAlert{})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateMessage(ctx context.Context, id uuid.UUID, message string) error {
	return r.DB(ctx).
		Model(&models.InventoryAlert{}).
		Where("id = ?", id).
		Update("message", message).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryAlert, error) {
	var alert models.InventoryAlert
	if err := r.DB(ctx).Preload("Item").Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// MarkResolved resolves the given alerts that are still open and returns how
// many changed.
func (r *repository) MarkResolved(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).
		Model(&models.InventoryAlert{}).
		Where("id IN ? AND is_resolved = ?", ids, false).
		Updates(map[string]any{
			"is_resolved": true,
			"resolved_at": at,
		})
	return res.RowsAffected, res.Error
}

// ListUnresolved returns open alerts newest first. A non-positive limit
// returns all of them.
func (r *repository) ListUnresolved(ctx context.Context, limit int) ([]models.InventoryAlert, error) {
	query := r.DB(ctx).
		Preload("Item").
		Where("is_resolved = ?", false).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var alerts []models.InventoryAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) ListResolved(ctx context.Context, limit int) ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	if err := r.DB(ctx).
		Preload("Item").
		Where("is_resolved = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("is_resolved = ? AND resolved_at < ?", true, cutoff).
		Delete(&models.InventoryAlert{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("item_id = ?", itemID).Delete(&models.InventoryAlert{})
	return res.RowsAffected, res.Error
}
