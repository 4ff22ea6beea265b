package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

const (
	trendMonths            = 6
	dashboardCacheSegment  = "dashboard"
	analyticsRecentTxLimit = 10
)

// Service serves read-only aggregates.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardData, error)
	Analytics(ctx context.Context) (*Analytics, error)
	Report(ctx context.Context, reportType enums.ReportType, filter Filter) (*Report, error)
	Invalidate(ctx context.Context) error
}

type cacheStore interface {
	CacheKey(parts ...string) string
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ServiceParams wires the reports service. Cache is optional; without it
// every dashboard read hits the database.
type ServiceParams struct {
	Repository Repository
	Alerts     alerts.Repository
	Ledger     ledger.Repository
	Cache      cacheStore
	Logger     *logger.Logger
	Config     config.InventoryConfig
}

type service struct {
	repo   Repository
	alerts alerts.Repository
	ledger ledger.Repository
	cache  cacheStore
	logg   *logger.Logger
	cfg    config.InventoryConfig
	now    func() time.Time
}

// NewService constructs the reports service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	if cfg.RecentAlertsLimit <= 0 {
		cfg.RecentAlertsLimit = 5
	}
	return &service{
		repo:   params.Repository,
		alerts: params.Alerts,
		ledger: params.Ledger,
		cache:  params.Cache,
		logg:   params.Logger,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// Dashboard returns the headline numbers and latest open alerts. Results are
// cached until the next mutation or the configured TTL.
func (s *service) Dashboard(ctx context.Context) (*DashboardData, error) {
	if cached, ok := s.cachedDashboard(ctx); ok {
		return cached, nil
	}

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load totals")
	}
	recent, err := s.alerts.ListUnresolved(ctx, s.cfg.RecentAlertsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent alerts")
	}

	data := &DashboardData{
		TotalItems:      totals.TotalItems,
		TotalValue:      json.Number(money(totals.TotalValue)),
		LowStockItems:   totals.LowOrOutItems,
		OutOfStockItems: totals.OutOfStockItems,
		RecentAlerts:    make([]DashboardAlert, 0, len(recent)),
		Timestamp:       s.now().UTC().Format(dashboardTimestampLayout),
	}
	for _, alert := range recent {
		entry := DashboardAlert{
			ID:        alert.ID,
			AlertType: alert.AlertType.Display(),
			Message:   alert.Message,
			CreatedAt: alert.CreatedAt.UTC().Format(alertTimestampLayout),
		}
		if alert.Item != nil {
			entry.ItemName = alert.Item.Name
		}
		data.RecentAlerts = append(data.RecentAlerts, entry)
	}

	s.storeDashboard(ctx, data)
	return data, nil
}

func (s *service) Analytics(ctx context.Context) (*Analytics, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load totals")
	}
	status, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status counts")
	}
	categories, err := s.repo.Categories(ctx, Filter{}, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
	}
	recentTx, err := s.ledger.ListRecent(ctx, analyticsRecentTxLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent transactions")
	}
	active, err := s.alerts.ListUnresolved(ctx, s.cfg.RecentAlertsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active alerts")
	}

	windows := ledger.TrendWindows(s.now().UTC(), trendMonths)
	trend := make([]TrendPoint, 0, len(windows))
	for _, window := range windows {
		count, err := s.ledger.CountBetween(ctx, window.Start, window.End)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction trend")
		}
		trend = append(trend, TrendPoint{Month: window.Label, Transactions: count})
	}

	return &Analytics{
		TotalItems:         totals.TotalItems,
		TotalQuantity:      totals.TotalQuantity,
		TotalValue:         money(totals.TotalValue),
		LowStockItems:      totals.LowOrOutItems,
		OutOfStockItems:    totals.OutOfStockItems,
		StockStatus:        status,
		Categories:         categorySummaries(categories),
		RecentTransactions: ledger.EntriesFromModels(recentTx),
		ActiveAlerts:       alerts.FromModels(active),
		MonthlyTrend:       trend,
	}, nil
}

// Report builds one of the typed reports.
func (s *service) Report(ctx context.Context, reportType enums.ReportType, filter Filter) (*Report, error) {
	if !reportType.IsValid() {
		return nil, pkgerrors.Validation("unknown report type", map[string]string{"type": "unknown report type"})
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, pkgerrors.Validation("invalid date range", map[string]string{"date_to": "must be after date_from"})
	}

	report := &Report{Type: reportType, Title: reportType.Title(), GeneratedAt: s.now().UTC()}
	var err error
	switch reportType {
	case enums.ReportTypeStockLevels:
		report.Items, err = s.itemRows(ctx, filter, false, OrderByQuantity)
	case enums.ReportTypeLowStock:
		report.Items, err = s.itemRows(ctx, filter, true, OrderByQuantity)
	case enums.ReportTypeAllItems:
		report.Items, err = s.itemRows(ctx, filter, false, OrderByName)
	case enums.ReportTypeCategorySummary:
		var rows []CategoryRow
		rows, err = s.repo.Categories(ctx, filter, false)
		report.Categories = categorySummaries(rows)
	case enums.ReportTypeSupplierAnalysis:
		var rows []SupplierRow
		rows, err = s.repo.Suppliers(ctx, filter)
		report.Suppliers = supplierSummaries(rows)
	case enums.ReportTypeValueAnalysis:
		report.Values, report.TotalValue, err = s.valueRows(ctx, filter)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build report")
	}
	return report, nil
}

// Invalidate drops the cached dashboard.
func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.dashboardKey())
}

func (s *service) itemRows(ctx context.Context, filter Filter, lowOnly bool, order ItemOrder) ([]items.ItemDTO, error) {
	rows, err := s.repo.Items(ctx, filter, lowOnly, order)
	if err != nil {
		return nil, err
	}
	return items.FromModels(rows), nil
}

func (s *service) valueRows(ctx context.Context, filter Filter) ([]ValueRow, string, error) {
	rows, err := s.repo.Items(ctx, filter, false, OrderByValueDesc)
	if err != nil {
		return nil, "", err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.TotalValue())
	}
	hundred := decimal.NewFromInt(100)
	out := make([]ValueRow, 0, len(rows))
	for _, row := range rows {
		share := decimal.Zero
		if total.IsPositive() {
			share = row.TotalValue().Mul(hundred).Div(total)
		}
		out = append(out, ValueRow{ItemDTO: items.FromModel(row), SharePercent: share.StringFixed(2)})
	}
	return out, money(total), nil
}

func (s *service) dashboardKey() string {
	return s.cache.CacheKey(dashboardCacheSegment)
}

func (s *service) cachedDashboard(ctx context.Context) (*DashboardData, bool) {
	if s.cache == nil || s.cfg.DashboardCacheTTL <= 0 {
		return nil, false
	}
	var data DashboardData
	found, err := s.cache.GetJSON(ctx, s.dashboardKey(), &data)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &data, true
}

func (s *service) storeDashboard(ctx context.Context, data *DashboardData) {
	if s.cache == nil || s.cfg.DashboardCacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, s.dashboardKey(), data, s.cfg.DashboardCacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard cache write failed")
	}
}
