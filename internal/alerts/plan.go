package alerts

import (
	"fmt"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

// Message renders the text stored on an alert of the given type.
func Message(item models.Item, alertType enums.AlertType) string {
	switch alertType {
	case enums.AlertTypeOutOfStock:
		return fmt.Sprintf("Item \"%s\" is out of stock. Immediate restocking required.", item.Name)
	case enums.AlertTypeLowStock:
		return fmt.Sprintf("Item \"%s\" is running low. Current stock: %d, Reorder level: %d", item.Name, item.Quantity, item.ReorderLevel)
	default:
		return fmt.Sprintf("Item \"%s\": %s", item.Name, alertType.Display())
	}
}

// Desired returns the single alert type an item should carry, if any.
func Desired(item models.Item) (enums.AlertType, bool) {
	return item.StockStatus().AlertType()
}

// Rewrite is a kept alert whose message no longer matches the item.
type Rewrite struct {
	Alert   models.InventoryAlert
	Message string
}

// Plan is the set of changes that brings an item's unresolved alerts in line
// with its stock state.
type Plan struct {
	Delete   []models.InventoryAlert
	Rewrite  []Rewrite
	Create   *models.InventoryAlert
	Retained *models.InventoryAlert
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Rewrite) == 0 && p.Create == nil
}

// BuildPlan diffs the item's unresolved alerts against the desired set. The
// oldest matching alert is kept; duplicates and every other type are deleted.
func BuildPlan(item models.Item, unresolved []models.InventoryAlert) Plan {
	desired, want := Desired(item)
	var plan Plan
	for i := range unresolved {
		alert := unresolved[i]
		if want && plan.Retained == nil && alert.AlertType == desired {
			kept := alert
			plan.Retained = &kept
			if msg := Message(item, desired); alert.Message != msg {
				plan.Rewrite = append(plan.Rewrite, Rewrite{Alert: alert, Message: msg})
			}
			continue
		}
		plan.Delete = append(plan.Delete, alert)
	}
	if want && plan.Retained == nil {
		plan.Create = &models.InventoryAlert{
			ItemID:    item.ID,
			AlertType: desired,
			Message:   Message(item, desired),
		}
	}
	return plan
}
