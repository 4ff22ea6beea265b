package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// AlertDTO is the API view of an alert.
type AlertDTO struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	ItemName         string          `json:"item_name,omitempty"`
	AlertType        enums.AlertType `json:"alert_type"`
	AlertTypeDisplay string          `json:"alert_type_display"`
	Message          string          `json:"message"`
	IsResolved       bool            `json:"is_resolved"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

// Overview groups open alerts with the most recently resolved ones.
type Overview struct {
	Active   []AlertDTO `json:"active"`
	Resolved []AlertDTO `json:"resolved"`
}

func FromModel(m models.InventoryAlert) AlertDTO {
	dto := AlertDTO{
		ID:               m.ID,
		ItemID:           m.ItemID,
		AlertType:        m.AlertType,
		AlertTypeDisplay: m.AlertType.Display(),
		Message:          m.Message,
		IsResolved:       m.IsResolved,
		CreatedAt:        m.CreatedAt,
		ResolvedAt:       m.ResolvedAt,
	}
	if m.Item != nil {
		dto.ItemName = m.Item.Name
	}
	return dto
}

func FromModels(rows []models.InventoryAlert) []AlertDTO {
	out := make([]AlertDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
