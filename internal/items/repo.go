package items

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/repo"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/pagination"
)

// ListFilter narrows an item listing.
type ListFilter struct {
	Query  string
	Limit  int
	Cursor *pagination.Cursor
}

// Repository manages persistence for items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	Save(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	List(ctx context.Context, filter ListFilter) ([]models.Item, error)
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	CountLowStock(ctx context.Context, ids []uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Create(item).Error
}

func (r *repository) Save(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Save(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.ForUpdate(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByIDsForUpdate locks the matching items in id order so concurrent bulk
// updates acquire row locks in the same sequence.
func (r *repository) ListByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Item
	if err := r.ForUpdate(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns items ordered by name. Query matches the name
// case-insensitively or the price text.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	query := r.DB(ctx).Model(&models.Item{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + repo.EscapeLike(strings.ToLower(q)) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\') OR (CAST(price AS TEXT) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.Cursor != nil {
		query = query.Where("(name > ?) OR (name = ? AND id > ?)", filter.Cursor.Key, filter.Cursor.Key, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.Item
	if err := query.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	query := r.DB(ctx).Model(&models.Item{}).Where("name = ?", name)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CountLowStock(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.DB(ctx).
		Model(&models.Item{}).
		Where("id IN ? AND quantity <= reorder_level", ids).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Item{})
	return res.RowsAffected, res.Error
}
