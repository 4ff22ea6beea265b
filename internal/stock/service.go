package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/actor"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/metrics"
)

const rejectionInsufficient = "insufficient_stock"

// Service performs stock movements.
type Service interface {
	Apply(ctx context.Context, who actor.Actor, input ApplyInput) (*Result, error)
	Submit(ctx context.Context, who actor.Actor, input SubmitInput) (*Result, error)
}

// ApplyInput is a movement expressed as a signed delta.
type ApplyInput struct {
	ItemID uuid.UUID
	Delta  int
	Type   enums.TransactionType
	Reason string
}

// SubmitInput is a movement as entered on the stock form: a type and a
// non-negative quantity whose meaning depends on the type.
type SubmitInput struct {
	ItemID   uuid.UUID
	Type     string
	Quantity int
	Reason   string
}

// Result describes a committed movement.
type Result struct {
	Item        items.ItemDTO   `json:"item"`
	NewQuantity int             `json:"new_quantity"`
	Transaction ledger.EntryDTO `json:"transaction"`
	Alerts      alerts.Outcome  `json:"-"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reconciler interface {
	Reconcile(ctx context.Context, tx *gorm.DB, item *models.Item) (alerts.Outcome, error)
}

type recorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (*models.InventoryTransaction, error)
}

// ServiceParams wires the stock service.
type ServiceParams struct {
	Items   items.Repository
	Ledger  recorder
	Alerts  reconciler
	DB      txRunner
	Cache   alerts.Invalidator
	Logger  *logger.Logger
	Metrics *metrics.InventoryMetrics
}

type service struct {
	items   items.Repository
	ledger  recorder
	alerts  reconciler
	db      txRunner
	cache   alerts.Invalidator
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
}

// NewService constructs the stock service.
func NewService(params ServiceParams) (Service, error) {
	if params.Items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		items:   params.Items,
		ledger:  params.Ledger,
		alerts:  params.Alerts,
		db:      params.DB,
		cache:   params.Cache,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Apply changes an item's stock by a signed delta.
func (s *service) Apply(ctx context.Context, who actor.Actor, input ApplyInput) (*Result, error) {
	if err := validateApply(input); err != nil {
		return nil, err
	}
	return s.apply(ctx, who, input.ItemID, input.Type, input.Reason, func(int) (int, error) {
		return input.Delta, nil
	})
}

// Submit derives the delta from a form submission under the item lock and
// applies it.
func (s *service) Submit(ctx context.Context, who actor.Actor, input SubmitInput) (*Result, error) {
	txType, err := ValidateSubmission(input)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, who, input.ItemID, txType, input.Reason, func(current int) (int, error) {
		return DeltaFor(txType, input.Quantity, current)
	})
}

// apply runs the whole movement in one transaction: lock the item, check the
// resulting balance, save, append the ledger entry, reconcile alerts.
func (s *service) apply(ctx context.Context, who actor.Actor, itemID uuid.UUID, txType enums.TransactionType, reason string, delta func(current int) (int, error)) (*Result, error) {
	reason = strings.TrimSpace(reason)
	var (
		item    *models.Item
		entry   *models.InventoryTransaction
		outcome alerts.Outcome
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		item, err = s.items.WithTx(tx).FindByIDForUpdate(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock item")
		}

		change, err := delta(item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock update")
		}
		if change > 0 && item.Quantity > models.MaxQuantity-change {
			return pkgerrors.Validation("stock would exceed the maximum quantity", map[string]string{
				"quantity": fmt.Sprintf("resulting stock must be at most %d", models.MaxQuantity),
			})
		}
		next := item.Quantity + change
		if next < 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "insufficient stock: available %d, requested change %d", item.Quantity, change).
				WithDetails(map[string]int{
					"current_quantity": item.Quantity,
					"requested_change": change,
				})
		}

		item.Quantity = next
		if err := s.items.WithTx(tx).Save(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save item")
		}

		entry, err = s.ledger.Record(ctx, tx, ledger.RecordInput{
			ItemID:       item.ID,
			Type:         txType,
			Delta:        change,
			BalanceAfter: next,
			Reason:       reason,
			UserID:       who.UserID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append transaction")
		}

		outcome, err = s.alerts.Reconcile(ctx, tx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile alerts")
		}
		return nil
	})

	logCtx := s.logg.WithItemID(ctx, itemID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"transaction_type": txType.String(),
		"actor":            who.Username,
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.metrics.IncRejection(rejectionInsufficient)
			s.logg.Warn(s.logg.WithField(logCtx, "event", "stock.rejected"), "stock update rejected")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock update")
	}

	s.metrics.IncMovement(txType.String())
	outcome.Observe(s.metrics, alerts.PathUpdate)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "dashboard cache invalidation failed")
		}
	}
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"event":          "stock.updated",
		"delta":          entry.Delta,
		"new_quantity":   item.Quantity,
		"alerts_created": len(outcome.Created),
		"alerts_cleared": len(outcome.Cleared),
	})
	s.logg.Info(logCtx, "stock updated")

	return &Result{
		Item:        items.FromModel(*item),
		NewQuantity: item.Quantity,
		Transaction: ledger.EntryFromModel(*entry),
		Alerts:      outcome,
	}, nil
}
