package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics counts stock movements and alert lifecycle events.
type InventoryMetrics struct {
	movements     *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	alertsCreated *prometheus.CounterVec
	alertsCleared *prometheus.CounterVec
	alertsSolved  prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_movements_total",
		Help: "Committed stock movements by transaction type.",
	}, []string{"type"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_rejections_total",
		Help: "Stock updates rejected before any mutation.",
	}, []string{"reason"})
	alertsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_alerts_created_total",
		Help: "Alerts created, by alert type and the path that created them.",
	}, []string{"type", "path"})
	alertsCleared := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_alerts_cleared_total",
		Help: "Unresolved alerts removed by reconciliation.",
	}, []string{"type"})
	alertsSolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_alerts_resolved_total",
		Help: "Alerts resolved by an operator.",
	})
	reg.MustRegister(movements, rejections, alertsCreated, alertsCleared, alertsSolved)
	return &InventoryMetrics{
		movements:     movements,
		rejections:    rejections,
		alertsCreated: alertsCreated,
		alertsCleared: alertsCleared,
		alertsSolved:  alertsSolved,
	}
}

func (m *InventoryMetrics) IncMovement(txType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(txType)).Inc()
}

func (m *InventoryMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *InventoryMetrics) AddAlertsCreated(alertType, path string, n int) {
	if m == nil || m.alertsCreated == nil || n <= 0 {
		return
	}
	m.alertsCreated.WithLabelValues(normalizeLabel(alertType), normalizeLabel(path)).Add(float64(n))
}

func (m *InventoryMetrics) AddAlertsCleared(alertType string, n int) {
	if m == nil || m.alertsCleared == nil || n <= 0 {
		return
	}
	m.alertsCleared.WithLabelValues(normalizeLabel(alertType)).Add(float64(n))
}

func (m *InventoryMetrics) AddAlertsResolved(n int) {
	if m == nil || m.alertsSolved == nil || n <= 0 {
		return
	}
	m.alertsSolved.Add(float64(n))
}
