package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// InventoryAlert is a warning derived from an item's stock condition. Once
// resolved a row is never reopened.
type InventoryAlert struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ItemID     uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	AlertType  enums.AlertType `gorm:"column:alert_type;type:varchar(20);not null"`
	Message    string          `gorm:"column:message;type:text;not null"`
	IsResolved bool            `gorm:"column:is_resolved;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime;index"`
	ResolvedAt *time.Time      `gorm:"column:resolved_at"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (InventoryAlert) TableName() string { return "inventory_alerts" }

func (a *InventoryAlert) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
