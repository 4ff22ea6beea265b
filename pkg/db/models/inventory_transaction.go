package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// InventoryTransaction records one immutable stock movement. Quantity holds
// the magnitude; Delta keeps the sign so decreasing adjustments stay
// distinguishable from increasing ones.
type InventoryTransaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ItemID          uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index"`
	TransactionType enums.TransactionType `gorm:"column:transaction_type;type:varchar(10);not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	Delta           int                   `gorm:"column:delta;not null"`
	BalanceAfter    int                   `gorm:"column:balance_after;not null"`
	Reason          string                `gorm:"column:reason;type:varchar(200);not null"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (InventoryTransaction) TableName() string { return "inventory_transactions" }

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
