package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/actor"
	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/db"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/metrics"
	"github.com/angelmondragon/inventory-backend/pkg/pagination"
	"github.com/angelmondragon/inventory-backend/pkg/types"
)

const uniqueNameConstraint = "items_name_key"

// Service exposes item catalog operations.
type Service interface {
	Create(ctx context.Context, who actor.Actor, input CreateInput) (*ItemDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ItemDetail, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[ItemDTO], error)
	Update(ctx context.Context, who actor.Actor, id uuid.UUID, input UpdateInput) (*ItemDTO, error)
	Delete(ctx context.Context, who actor.Actor, id uuid.UUID) error
	SetReorderLevel(ctx context.Context, who actor.Actor, ids []uuid.UUID, level *int) (int, error)
	CountLowStock(ctx context.Context, ids []uuid.UUID) (int, error)
}

// CreateInput holds the payload to create an item. Nil pointers take the
// configured defaults.
type CreateInput struct {
	Name         string
	Quantity     int
	Price        decimal.Decimal
	ReorderLevel *int
	Category     string
	Supplier     *string
}

// UpdateInput holds optional catalog changes. Quantity is deliberately absent;
// stock only moves through the stock service.
type UpdateInput struct {
	Name         *string
	Price        *decimal.Decimal
	ReorderLevel *int
	Category     *string
	Supplier     types.Nullable[string]
}

// ListParams drives item listing.
type ListParams struct {
	Query string
	pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reconciler interface {
	Reconcile(ctx context.Context, tx *gorm.DB, item *models.Item) (alerts.Outcome, error)
	ForItem(ctx context.Context, itemID uuid.UUID) ([]alerts.AlertDTO, error)
}

type historyReader interface {
	History(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*pagination.Page[ledger.EntryDTO], error)
}

// ServiceParams wires the item service.
type ServiceParams struct {
	Repository Repository
	Ledger     ledger.Repository
	AlertRepo  alerts.Repository
	DB         txRunner
	Alerts     reconciler
	History    historyReader
	Cache      alerts.Invalidator
	Logger     *logger.Logger
	Metrics    *metrics.InventoryMetrics
	Config     config.InventoryConfig
}

type service struct {
	repo      Repository
	ledger    ledger.Repository
	alertRepo alerts.Repository
	db        txRunner
	alerts    reconciler
	history   historyReader
	cache     alerts.Invalidator
	logg      *logger.Logger
	metrics   *metrics.InventoryMetrics
	cfg       config.InventoryConfig
}

// NewService constructs the item service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.AlertRepo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = "General"
	}
	if cfg.RecentTxLimit <= 0 {
		cfg.RecentTxLimit = 10
	}
	return &service{
		repo:      params.Repository,
		ledger:    params.Ledger,
		alertRepo: params.AlertRepo,
		db:        params.DB,
		alerts:    params.Alerts,
		history:   params.History,
		cache:     params.Cache,
		logg:      params.Logger,
		metrics:   params.Metrics,
		cfg:       cfg,
	}, nil
}

// Create inserts the item and raises its initial alert if it starts at or
// below the reorder level.
func (s *service) Create(ctx context.Context, who actor.Actor, input CreateInput) (*ItemDTO, error) {
	errs := fieldErrors{}
	reorder := s.cfg.DefaultReorderLevel
	if input.ReorderLevel != nil {
		reorder = *input.ReorderLevel
	}
	item := &models.Item{
		Name:         normalizeName(input.Name, errs),
		Quantity:     input.Quantity,
		Price:        input.Price,
		ReorderLevel: reorder,
		Category:     normalizeCategory(input.Category, s.cfg.DefaultCategory, errs),
		Supplier:     normalizeSupplier(input.Supplier, errs),
	}
	checkCount("quantity", item.Quantity, errs)
	checkPrice(item.Price, errs)
	checkCount("reorder_level", item.ReorderLevel, errs)
	if len(errs) > 0 {
		return nil, pkgerrors.Validation("invalid item", errs)
	}

	var outcome alerts.Outcome
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := s.ensureNameFree(ctx, txRepo, item.Name, uuid.Nil); err != nil {
			return err
		}
		if err := txRepo.Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, uniqueNameConstraint) {
				return duplicateName()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
		}
		var err error
		outcome, err = s.alerts.Reconcile(ctx, tx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile alerts")
		}
		return nil
	}); err != nil {
		return nil, asServiceError(err, "create item")
	}

	outcome.Observe(s.metrics, alerts.PathUpdate)
	s.invalidate(ctx)
	s.logEvent(ctx, who, item.ID, "items.created")

	dto := FromModel(*item)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ItemDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load item")
	}
	history, err := s.history.History(ctx, id, pagination.Params{Limit: s.cfg.RecentTxLimit})
	if err != nil {
		return nil, err
	}
	active, err := s.alerts.ForItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ItemDetail{
		ItemDTO:            FromModel(*item),
		RecentTransactions: history.Items,
		ActiveAlerts:       active,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[ItemDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListFilter{
		Query:  params.Query,
		Limit:  pagination.LimitWithBuffer(params.Limit),
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(row models.Item) pagination.Cursor {
		return pagination.Cursor{Key: row.Name, ID: row.ID}
	})
	return &pagination.Page[ItemDTO]{Items: FromModels(rows), NextCursor: next}, nil
}

// Update edits catalog fields under the item's row lock. A reorder level or
// name change re-evaluates the item's alerts.
func (s *service) Update(ctx context.Context, who actor.Actor, id uuid.UUID, input UpdateInput) (*ItemDTO, error) {
	var (
		updated models.Item
		outcome alerts.Outcome
	)
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load item")
		}
		if err := applyUpdate(item, input, s.cfg.DefaultCategory); err != nil {
			return err
		}
		if input.Name != nil {
			if err := s.ensureNameFree(ctx, txRepo, item.Name, item.ID); err != nil {
				return err
			}
		}
		if err := txRepo.Save(ctx, item); err != nil {
			if db.IsUniqueViolation(err, uniqueNameConstraint) {
				return duplicateName()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
		}
		outcome, err = s.alerts.Reconcile(ctx, tx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile alerts")
		}
		updated = *item
		return nil
	}); err != nil {
		return nil, asServiceError(err, "update item")
	}

	outcome.Observe(s.metrics, alerts.PathUpdate)
	s.invalidate(ctx)
	s.logEvent(ctx, who, id, "items.updated")

	dto := FromModel(updated)
	return &dto, nil
}

// Delete removes the item together with its ledger entries and alerts.
func (s *service) Delete(ctx context.Context, who actor.Actor, id uuid.UUID) error {
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id); err != nil {
			return notFoundOr(err, "load item")
		}
		if _, err := s.alertRepo.WithTx(tx).DeleteByItem(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item alerts")
		}
		if _, err := s.ledger.WithTx(tx).DeleteByItem(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item transactions")
		}
		if _, err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
		}
		return nil
	}); err != nil {
		return asServiceError(err, "delete item")
	}

	s.invalidate(ctx)
	s.logEvent(ctx, who, id, "items.deleted")
	return nil
}

// SetReorderLevel applies one reorder level to many items and reconciles
// each item's alerts. A nil level uses the configured default.
func (s *service) SetReorderLevel(ctx context.Context, who actor.Actor, ids []uuid.UUID, level *int) (int, error) {
	unique := dedupe(ids)
	errs := fieldErrors{}
	if len(unique) == 0 {
		errs.add("ids", "at least one item id is required")
	}
	target := s.cfg.DefaultReorderLevel
	if level != nil {
		target = *level
	}
	checkCount("reorder_level", target, errs)
	if len(errs) > 0 {
		return 0, pkgerrors.Validation("invalid reorder level update", errs)
	}

	var (
		updated  int
		outcomes []alerts.Outcome
	)
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.ListByIDsForUpdate(ctx, unique)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock items")
		}
		for i := range rows {
			item := &rows[i]
			item.ReorderLevel = target
			if err := txRepo.Save(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update reorder level")
			}
			outcome, err := s.alerts.Reconcile(ctx, tx, item)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile alerts")
			}
			outcomes = append(outcomes, outcome)
			updated++
		}
		return nil
	}); err != nil {
		return 0, asServiceError(err, "set reorder level")
	}

	for _, outcome := range outcomes {
		outcome.Observe(s.metrics, alerts.PathUpdate)
	}
	if updated > 0 {
		s.invalidate(ctx)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":         "items.reorder_level_set",
		"reorder_level": target,
		"requested":     len(unique),
		"updated":       updated,
		"actor":         who.Username,
	})
	s.logg.Info(logCtx, "reorder level updated")
	return updated, nil
}

func (s *service) CountLowStock(ctx context.Context, ids []uuid.UUID) (int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, pkgerrors.Validation("at least one item id is required", map[string]string{"ids": "required"})
	}
	count, err := s.repo.CountLowStock(ctx, unique)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count low stock")
	}
	return int(count), nil
}

func (s *service) ensureNameFree(ctx context.Context, repo Repository, name string, exclude uuid.UUID) error {
	taken, err := repo.NameTaken(ctx, name, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check item name")
	}
	if taken {
		return duplicateName()
	}
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard cache invalidation failed")
	}
}

func (s *service) logEvent(ctx context.Context, who actor.Actor, itemID uuid.UUID, event string) {
	logCtx := s.logg.WithItemID(ctx, itemID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"event": event,
		"actor": who.Username,
	})
	s.logg.Info(logCtx, event)
}

func applyUpdate(item *models.Item, input UpdateInput, defaultCategory string) error {
	errs := fieldErrors{}
	if input.Name != nil {
		item.Name = normalizeName(*input.Name, errs)
	}
	if input.Price != nil {
		checkPrice(*input.Price, errs)
		item.Price = *input.Price
	}
	if input.ReorderLevel != nil {
		checkCount("reorder_level", *input.ReorderLevel, errs)
		item.ReorderLevel = *input.ReorderLevel
	}
	if input.Category != nil {
		item.Category = normalizeCategory(*input.Category, defaultCategory, errs)
	}
	if input.Supplier.Set {
		item.Supplier = normalizeSupplier(input.Supplier.Value, errs)
	}
	if len(errs) > 0 {
		return pkgerrors.Validation("invalid item", errs)
	}
	return nil
}

func duplicateName() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "an item with this name already exists").
		WithDetails(map[string]string{"name": "already exists"})
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func asServiceError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
