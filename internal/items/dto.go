package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// ItemDTO is the API view of an item including its derived stock fields.
// Money values are rendered with two decimals.
type ItemDTO struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	Quantity           int               `json:"quantity"`
	Price              string            `json:"price"`
	ReorderLevel       int               `json:"reorder_level"`
	Category           string            `json:"category"`
	Supplier           *string           `json:"supplier"`
	TotalValue         string            `json:"total_value"`
	IsLowStock         bool              `json:"is_low_stock"`
	IsOutOfStock       bool              `json:"is_out_of_stock"`
	StockStatus        enums.StockStatus `json:"stock_status"`
	StockStatusDisplay string            `json:"stock_status_display"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ItemDetail adds the latest ledger entries and open alerts.
type ItemDetail struct {
	ItemDTO
	RecentTransactions []ledger.EntryDTO `json:"recent_transactions"`
	ActiveAlerts       []alerts.AlertDTO `json:"active_alerts"`
}

func FromModel(m models.Item) ItemDTO {
	status := m.StockStatus()
	return ItemDTO{
		ID:                 m.ID,
		Name:               m.Name,
		Quantity:           m.Quantity,
		Price:              m.Price.StringFixed(2),
		ReorderLevel:       m.ReorderLevel,
		Category:           m.Category,
		Supplier:           m.Supplier,
		TotalValue:         m.TotalValue().StringFixed(2),
		IsLowStock:         m.IsLowStock(),
		IsOutOfStock:       m.IsOutOfStock(),
		StockStatus:        status,
		StockStatusDisplay: status.Display(),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func FromModels(rows []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
