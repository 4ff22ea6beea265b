package reports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

const (
	dashboardTimestampLayout = "2006-01-02 15:04:05"
	alertTimestampLayout     = "2006-01-02 15:04"
)

// DashboardData is the payload of the dashboard-data endpoint.
type DashboardData struct {
	TotalItems      int64            `json:"total_items"`
	TotalValue      json.Number      `json:"total_value"`
	LowStockItems   int64            `json:"low_stock_items"`
	OutOfStockItems int64            `json:"out_of_stock_items"`
	RecentAlerts    []DashboardAlert `json:"recent_alerts"`
	Timestamp       string           `json:"timestamp"`
}

// DashboardAlert is the compact alert view used by the dashboard.
type DashboardAlert struct {
	ID        uuid.UUID `json:"id"`
	ItemName  string    `json:"item_name"`
	AlertType string    `json:"alert_type"`
	Message   string    `json:"message"`
	CreatedAt string    `json:"created_at"`
}

// CategorySummary is a category row with money rendered to two decimals.
type CategorySummary struct {
	Category      string `json:"category"`
	ItemCount     int64  `json:"item_count"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
	AvgPrice      string `json:"avg_price"`
}

// SupplierSummary is a supplier row with money rendered to two decimals.
type SupplierSummary struct {
	Supplier      string `json:"supplier"`
	ItemCount     int64  `json:"item_count"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// ValueRow is an item with its share of the total inventory value.
type ValueRow struct {
	items.ItemDTO
	SharePercent string `json:"share_percent"`
}

// TrendPoint counts movements in one 30 day window.
type TrendPoint struct {
	Month        string `json:"month"`
	Transactions int64  `json:"transactions"`
}

// Analytics is the analytics dashboard payload.
type Analytics struct {
	TotalItems         int64             `json:"total_items"`
	TotalQuantity      int64             `json:"total_quantity"`
	TotalValue         string            `json:"total_value"`
	LowStockItems      int64             `json:"low_stock_items"`
	OutOfStockItems    int64             `json:"out_of_stock_items"`
	StockStatus        StatusCounts      `json:"stock_status"`
	Categories         []CategorySummary `json:"categories"`
	RecentTransactions []ledger.EntryDTO `json:"recent_transactions"`
	ActiveAlerts       []alerts.AlertDTO `json:"active_alerts"`
	MonthlyTrend       []TrendPoint      `json:"monthly_trend"`
}

// Report is one generated report. Exactly one of the row sets is filled,
// depending on Type.
type Report struct {
	Type        enums.ReportType  `json:"type"`
	Title       string            `json:"title"`
	GeneratedAt time.Time         `json:"generated_at"`
	Items       []items.ItemDTO   `json:"items,omitempty"`
	Categories  []CategorySummary `json:"categories,omitempty"`
	Suppliers   []SupplierSummary `json:"suppliers,omitempty"`
	Values      []ValueRow        `json:"values,omitempty"`
	TotalValue  string            `json:"total_value,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func categorySummaries(rows []CategoryRow) []CategorySummary {
	out := make([]CategorySummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategorySummary{
			Category:      row.Category,
			ItemCount:     row.ItemCount,
			TotalQuantity: row.TotalQuantity,
			TotalValue:    money(row.TotalValue),
			AvgPrice:      money(row.AvgPrice),
		})
	}
	return out
}

func supplierSummaries(rows []SupplierRow) []SupplierSummary {
	out := make([]SupplierSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, SupplierSummary{
			Supplier:      row.Supplier,
			ItemCount:     row.ItemCount,
			TotalQuantity: row.TotalQuantity,
			TotalValue:    money(row.TotalValue),
		})
	}
	return out
}
