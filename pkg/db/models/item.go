package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// MaxQuantity is the largest stock count or reorder level the integer
// columns can hold.
const MaxQuantity = math.MaxInt32

// Item represents a catalog record together with its on-hand stock.
type Item struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;type:varchar(200);not null;uniqueIndex"`
	Quantity     int             `gorm:"column:quantity;not null;default:0"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ReorderLevel int             `gorm:"column:reorder_level;not null"`
	Category     string          `gorm:"column:category;type:varchar(100);not null"`
	Supplier     *string         `gorm:"column:supplier;type:varchar(200)"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string { return "items" }

// BeforeCreate assigns an id when the caller did not.
func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TotalValue is quantity multiplied by unit price.
func (i Item) TotalValue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsLowStock reports whether stock is at or below the reorder level. Out of
// stock items are also low stock.
func (i Item) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// IsOutOfStock reports whether no units remain.
func (i Item) IsOutOfStock() bool {
	return i.Quantity == 0
}

func (i Item) StockStatus() enums.StockStatus {
	return enums.StockStatusFor(i.Quantity, i.ReorderLevel)
}
