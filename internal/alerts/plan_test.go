package alerts

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

func planItem(quantity, reorder int) models.Item {
	return models.Item{ID: uuid.New(), Name: "Bolt", Quantity: quantity, ReorderLevel: reorder}
}

func openAlert(item models.Item, alertType enums.AlertType) models.InventoryAlert {
	return models.InventoryAlert{ID: uuid.New(), ItemID: item.ID, AlertType: alertType, Message: Message(item, alertType)}
}

func TestMessageFormats(t *testing.T) {
	item := models.Item{Name: "Bolt", Quantity: 3, ReorderLevel: 5}
	if got := Message(item, enums.AlertTypeLowStock); got != `Item "Bolt" is running low. Current stock: 3, Reorder level: 5` {
		t.Fatalf("unexpected low stock message %q", got)
	}
	if got := Message(item, enums.AlertTypeOutOfStock); got != `Item "Bolt" is out of stock. Immediate restocking required.` {
		t.Fatalf("unexpected out of stock message %q", got)
	}
}

func TestBuildPlan(t *testing.T) {
	t.Run("in stock clears everything", func(t *testing.T) {
		item := planItem(20, 5)
		plan := BuildPlan(item, []models.InventoryAlert{
			openAlert(item, enums.AlertTypeLowStock),
			openAlert(item, enums.AlertTypeOverstock),
		})
		if len(plan.Delete) != 2 || plan.Create != nil || plan.Retained != nil {
			t.Fatalf("unexpected plan: %+v", plan)
		}
	})

	t.Run("low stock creates when missing", func(t *testing.T) {
		item := planItem(3, 5)
		plan := BuildPlan(item, nil)
		if plan.Create == nil || plan.Create.AlertType != enums.AlertTypeLowStock {
			t.Fatalf("expected low stock creation, got %+v", plan)
		}
		if plan.Create.ItemID != item.ID {
			t.Fatalf("expected alert bound to item")
		}
	})

	t.Run("out of stock replaces low stock", func(t *testing.T) {
		item := planItem(0, 5)
		low := openAlert(planItem(3, 5), enums.AlertTypeLowStock)
		plan := BuildPlan(item, []models.InventoryAlert{low})
		if len(plan.Delete) != 1 || plan.Delete[0].ID != low.ID {
			t.Fatalf("expected low stock alert deleted, got %+v", plan.Delete)
		}
		if plan.Create == nil || plan.Create.AlertType != enums.AlertTypeOutOfStock {
			t.Fatalf("expected out of stock creation, got %+v", plan.Create)
		}
	})

	t.Run("duplicates keep the oldest", func(t *testing.T) {
		item := planItem(2, 5)
		first := openAlert(item, enums.AlertTypeLowStock)
		second := openAlert(item, enums.AlertTypeLowStock)
		plan := BuildPlan(item, []models.InventoryAlert{first, second})
		if plan.Retained == nil || plan.Retained.ID != first.ID {
			t.Fatalf("expected first alert retained, got %+v", plan.Retained)
		}
		if len(plan.Delete) != 1 || plan.Delete[0].ID != second.ID {
			t.Fatalf("expected duplicate deleted, got %+v", plan.Delete)
		}
		if plan.Create != nil || len(plan.Rewrite) != 0 {
			t.Fatalf("unexpected writes: %+v", plan)
		}
	})

	t.Run("stale message rewritten in place", func(t *testing.T) {
		item := planItem(2, 5)
		stale := openAlert(planItem(4, 5), enums.AlertTypeLowStock)
		plan := BuildPlan(item, []models.InventoryAlert{stale})
		if len(plan.Rewrite) != 1 || plan.Rewrite[0].Alert.ID != stale.ID {
			t.Fatalf("expected rewrite, got %+v", plan.Rewrite)
		}
		if plan.Rewrite[0].Message != Message(item, enums.AlertTypeLowStock) {
			t.Fatalf("unexpected rewrite message %q", plan.Rewrite[0].Message)
		}
		if plan.Create != nil || len(plan.Delete) != 0 {
			t.Fatalf("unexpected writes: %+v", plan)
		}
	})

	t.Run("consistent state is empty", func(t *testing.T) {
		item := planItem(0, 5)
		plan := BuildPlan(item, []models.InventoryAlert{openAlert(item, enums.AlertTypeOutOfStock)})
		if !plan.Empty() {
			t.Fatalf("expected empty plan, got %+v", plan)
		}
	})
}
