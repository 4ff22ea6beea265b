package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// EntryDTO is the API view of a ledger entry.
type EntryDTO struct {
	ID           uuid.UUID             `json:"id"`
	ItemID       uuid.UUID             `json:"item_id"`
	ItemName     string                `json:"item_name,omitempty"`
	Type         enums.TransactionType `json:"transaction_type"`
	TypeLabel    string                `json:"transaction_type_display"`
	Quantity     int                   `json:"quantity"`
	Delta        int                   `json:"delta"`
	BalanceAfter int                   `json:"balance_after"`
	Reason       string                `json:"reason"`
	UserID       *uuid.UUID            `json:"user_id,omitempty"`
	Username     string                `json:"username,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func EntryFromModel(m models.InventoryTransaction) EntryDTO {
	dto := EntryDTO{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Type:         m.TransactionType,
		TypeLabel:    m.TransactionType.Label(),
		Quantity:     m.Quantity,
		Delta:        m.Delta,
		BalanceAfter: m.BalanceAfter,
		Reason:       m.Reason,
		UserID:       m.UserID,
		CreatedAt:    m.CreatedAt,
	}
	if m.Item != nil {
		dto.ItemName = m.Item.Name
	}
	if m.User != nil {
		dto.Username = m.User.Username
	}
	return dto
}

func EntriesFromModels(rows []models.InventoryTransaction) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, EntryFromModel(row))
	}
	return out
}
