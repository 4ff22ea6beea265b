package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/actor"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/metrics"
)

// RecentResolvedLimit caps the resolved alerts returned by Overview.
const RecentResolvedLimit = 20

const (
	PathUpdate = "update"
	PathSweep  = "sweep"
)

// Service keeps alerts consistent with stock levels and serves them.
type Service interface {
	Reconcile(ctx context.Context, tx *gorm.DB, item *models.Item) (Outcome, error)
	Sweep(ctx context.Context) (SweepResult, error)
	Resolve(ctx context.Context, who actor.Actor, id uuid.UUID) (*AlertDTO, error)
	ResolveMany(ctx context.Context, who actor.Actor, ids []uuid.UUID) (int, error)
	Overview(ctx context.Context) (*Overview, error)
	ForItem(ctx context.Context, itemID uuid.UUID) ([]AlertDTO, error)
	PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Invalidator drops cached aggregates that embed alert data.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ServiceParams wires the alert service.
type ServiceParams struct {
	Repository Repository
	DB         txRunner
	Logger     *logger.Logger
	Metrics    *metrics.InventoryMetrics
	Cache      Invalidator
}

type service struct {
	repo    Repository
	db      txRunner
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
	cache   Invalidator
	now     func() time.Time
}

// Outcome summarises what a reconciliation changed.
type Outcome struct {
	Created   []enums.AlertType
	Cleared   []enums.AlertType
	Rewritten int
}

// Changed reports whether any alert row was written.
func (o Outcome) Changed() bool {
	return len(o.Created) > 0 || len(o.Cleared) > 0 || o.Rewritten > 0
}

// Observe records the outcome on the inventory metrics. Call it after the
// surrounding transaction commits.
func (o Outcome) Observe(m *metrics.InventoryMetrics, path string) {
	for _, t := range o.Created {
		m.AddAlertsCreated(t.String(), path, 1)
	}
	for _, t := range o.Cleared {
		m.AddAlertsCleared(t.String(), 1)
	}
}

// SweepResult reports what a sweep created.
type SweepResult struct {
	Scanned int
	Created int
	ByType  map[enums.AlertType]int
}

// NewService builds the alert service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repository,
		db:      params.DB,
		logg:    params.Logger,
		metrics: params.Metrics,
		cache:   params.Cache,
		now:     time.Now,
	}, nil
}

// Reconcile brings the item's unresolved alerts in line with its stock. The
// caller must hold the item's row lock on tx. Deletes run before inserts.
func (s *service) Reconcile(ctx context.Context, tx *gorm.DB, item *models.Item) (Outcome, error) {
	var out Outcome
	if item == nil {
		return out, fmt.Errorf("item required")
	}
	repo := s.repo.WithTx(tx)

	unresolved, err := repo.ListUnresolvedByItem(ctx, item.ID)
	if err != nil {
		return out, fmt.Errorf("list unresolved alerts: %w", err)
	}
	plan := BuildPlan(*item, unresolved)
	if plan.Empty() {
		return out, nil
	}

	if len(plan.Delete) > 0 {
		ids := make([]uuid.UUID, 0, len(plan.Delete))
		for _, alert := range plan.Delete {
			ids = append(ids, alert.ID)
			out.Cleared = append(out.Cleared, alert.AlertType)
		}
		if _, err := repo.DeleteByIDs(ctx, ids); err != nil {
			return Outcome{}, fmt.Errorf("delete stale alerts: %w", err)
		}
	}
	for _, rw := range plan.Rewrite {
		if err := repo.UpdateMessage(ctx, rw.Alert.ID, rw.Message); err != nil {
			return Outcome{}, fmt.Errorf("rewrite alert message: %w", err)
		}
		out.Rewritten++
	}
	if plan.Create != nil {
		if err := repo.Create(ctx, plan.Create); err != nil {
			return Outcome{}, fmt.Errorf("create alert: %w", err)
		}
		out.Created = append(out.Created, plan.Create.AlertType)
	}
	return out, nil
}

// Sweep fills in alerts missing for low or out of stock items. It never
// deletes. Failures on one item do not stop the scan; they are returned
// together once every candidate has been visited.
func (s *service) Sweep(ctx context.Context) (SweepResult, error) {
	result := SweepResult{ByType: map[enums.AlertType]int{}}
	ids, err := s.repo.ListSweepCandidates(ctx)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sweep candidates")
	}

	var errs error
	for _, id := range ids {
		result.Scanned++
		created, err := s.sweepItem(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %s: %w", id, err))
			continue
		}
		if created != "" {
			result.Created++
			result.ByType[created]++
			s.metrics.AddAlertsCreated(created.String(), PathSweep, 1)
		}
	}

	if result.Created > 0 {
		s.invalidate(ctx)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":          "alerts.sweep.completed",
		"items_scanned":  result.Scanned,
		"alerts_created": result.Created,
		"failures":       len(multierr.Errors(errs)),
	})
	s.logg.Info(logCtx, "alert sweep completed")
	return result, errs
}

func (s *service) sweepItem(ctx context.Context, itemID uuid.UUID) (enums.AlertType, error) {
	var created enums.AlertType
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.LockItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		alertType, ok := Desired(*item)
		if !ok {
			return nil
		}
		exists, err := repo.ExistsUnresolved(ctx, item.ID, alertType)
		if err != nil || exists {
			return err
		}
		if err := repo.Create(ctx, &models.InventoryAlert{
			ItemID:    item.ID,
			AlertType: alertType,
			Message:   Message(*item, alertType),
		}); err != nil {
			return err
		}
		created = alertType
		return nil
	})
	if err != nil {
		return "", err
	}
	return created, nil
}

// Resolve closes an alert. Resolving an already resolved alert returns it
// unchanged.
func (s *service) Resolve(ctx context.Context, who actor.Actor, id uuid.UUID) (*AlertDTO, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	if alert.IsResolved {
		dto := FromModel(*alert)
		return &dto, nil
	}

	resolvedAt := s.now().UTC()
	changed, err := s.repo.MarkResolved(ctx, []uuid.UUID{id}, resolvedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
	}
	if changed == 0 {
		// Resolved concurrently; report the stored row.
		alert, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload alert")
		}
	} else {
		alert.IsResolved = true
		alert.ResolvedAt = &resolvedAt
		s.metrics.AddAlertsResolved(1)
		s.invalidate(ctx)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":    "alerts.resolved",
		"alert_id": id.String(),
		"item_id":  alert.ItemID.String(),
		"actor":    who.Username,
	})
	s.logg.Info(logCtx, "alert resolved")

	dto := FromModel(*alert)
	return &dto, nil
}

// ResolveMany resolves the given alerts and returns how many were open.
func (s *service) ResolveMany(ctx context.Context, who actor.Actor, ids []uuid.UUID) (int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, pkgerrors.Validation("at least one alert id is required", map[string]string{"ids": "required"})
	}
	changed, err := s.repo.MarkResolved(ctx, unique, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alerts")
	}
	if changed > 0 {
		s.metrics.AddAlertsResolved(int(changed))
		s.invalidate(ctx)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event":     "alerts.resolved_bulk",
		"requested": len(unique),
		"resolved":  changed,
		"actor":     who.Username,
	})
	s.logg.Info(logCtx, "alerts resolved in bulk")
	return int(changed), nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	active, err := s.repo.ListUnresolved(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active alerts")
	}
	resolved, err := s.repo.ListResolved(ctx, RecentResolvedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resolved alerts")
	}
	return &Overview{Active: FromModels(active), Resolved: FromModels(resolved)}, nil
}

func (s *service) ForItem(ctx context.Context, itemID uuid.UUID) ([]AlertDTO, error) {
	rows, err := s.repo.ListUnresolvedByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item alerts")
	}
	return FromModels(rows), nil
}

// PurgeResolved hard-deletes resolved alerts resolved before cutoff.
func (s *service) PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).DeleteResolvedBefore(ctx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge resolved alerts: %w", err)
	}
	return deleted, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard cache invalidation failed")
	}
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
