package reports

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/repo"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
)

// UnspecifiedSupplier labels items without a supplier in supplier reports.
const UnspecifiedSupplier = "Unspecified"

// Filter narrows report queries. Zero values disable a condition; To is
// exclusive.
type Filter struct {
	Category string
	Supplier string
	From     *time.Time
	To       *time.Time
}

// Totals are whole-catalog aggregates.
type Totals struct {
	TotalItems      int64
	TotalQuantity   int64
	TotalValue      decimal.Decimal
	LowOrOutItems   int64
	OutOfStockItems int64
}

// StatusCounts partitions items by stock status.
type StatusCounts struct {
	InStock    int64 `json:"in_stock"`
	LowStock   int64 `json:"low_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

// CategoryRow aggregates items sharing a category.
type CategoryRow struct {
	Category      string
	ItemCount     int64
	TotalQuantity int64
	TotalValue    decimal.Decimal
	AvgPrice      decimal.Decimal
}

// SupplierRow aggregates items sharing a supplier.
type SupplierRow struct {
	Supplier      string
	ItemCount     int64
	TotalQuantity int64
	TotalValue    decimal.Decimal
}

// ItemOrder selects the ordering of item reports.
type ItemOrder string

const (
	OrderByName      ItemOrder = "name"
	OrderByQuantity  ItemOrder = "quantity"
	OrderByValueDesc ItemOrder = "value_desc"
)

// Repository runs the read-only aggregate queries behind dashboards and
// reports.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	StatusCounts(ctx context.Context) (StatusCounts, error)
	Categories(ctx context.Context, filter Filter, byValue bool) ([]CategoryRow, error)
	Suppliers(ctx context.Context, filter Filter) ([]SupplierRow, error)
	Items(ctx context.Context, filter Filter, lowOnly bool, order ItemOrder) ([]models.Item, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Totals(ctx context.Context) (Totals, error) {
	var totals Totals
	err := r.DB(ctx).
		Model(&models.Item{}).
		Select(`COUNT(*) AS total_items,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(quantity * price), 0) AS total_value,
			COALESCE(SUM(CASE WHEN quantity <= reorder_level THEN 1 ELSE 0 END), 0) AS low_or_out_items,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_items`).
		Scan(&totals).Error
	return totals, err
}

// StatusCounts uses the same predicates as alert reconciliation: zero is
// out of stock, up to the reorder level is low.
func (r *repository) StatusCounts(ctx context.Context) (StatusCounts, error) {
	var counts StatusCounts
	err := r.DB(ctx).
		Model(&models.Item{}).
		Select(`COALESCE(SUM(CASE WHEN quantity > reorder_level AND quantity > 0 THEN 1 ELSE 0 END), 0) AS in_stock,
			COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= reorder_level THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock`).
		Scan(&counts).Error
	return counts, err
}

func (r *repository) Categories(ctx context.Context, filter Filter, byValue bool) ([]CategoryRow, error) {
	order := "category ASC"
	if byValue {
		order = "total_value DESC, category ASC"
	}
	var rows []CategoryRow
	err := applyFilter(r.DB(ctx).Model(&models.Item{}), filter).
		Select(`category,
			COUNT(*) AS item_count,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(quantity * price), 0) AS total_value,
			COALESCE(AVG(price), 0) AS avg_price`).
		Group("category").
		Order(order).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) Suppliers(ctx context.Context, filter Filter) ([]SupplierRow, error) {
	const supplierExpr = "COALESCE(NULLIF(TRIM(supplier), ''), '" + UnspecifiedSupplier + "')"
	var rows []SupplierRow
	err := applyFilter(r.DB(ctx).Model(&models.Item{}), filter).
		Select(supplierExpr + ` AS supplier,
			COUNT(*) AS item_count,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(quantity * price), 0) AS total_value`).
		Group(supplierExpr).
		Order("total_value DESC").
		Order("supplier ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) Items(ctx context.Context, filter Filter, lowOnly bool, order ItemOrder) ([]models.Item, error) {
	query := applyFilter(r.DB(ctx).Model(&models.Item{}), filter)
	if lowOnly {
		query = query.Where("quantity <= reorder_level")
	}
	switch order {
	case OrderByQuantity:
		query = query.Order("quantity ASC").Order("name ASC")
	case OrderByValueDesc:
		query = query.Order("quantity * price DESC").Order("name ASC")
	default:
		query = query.Order("name ASC")
	}
	var rows []models.Item
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where(`LOWER(category) LIKE ? ESCAPE '\'`, "%"+repo.EscapeLike(strings.ToLower(c))+"%")
	}
	if s := strings.TrimSpace(filter.Supplier); s != "" {
		query = query.Where(`LOWER(supplier) LIKE ? ESCAPE '\'`, "%"+repo.EscapeLike(strings.ToLower(s))+"%")
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}
