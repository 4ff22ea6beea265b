package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.Executed("alert_sweep", 250*time.Millisecond, nil)
	m.Executed("alert_sweep", time.Second, errors.New("db down"))
	m.Skipped("alert_sweep")
	m.Skipped("alert_sweep")

	families, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(families, "inventory_cron_job_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 1.0, counterWith(runs, CronOutcomeSuccess))
	assert.Equal(t, 1.0, counterWith(runs, CronOutcomeFailure))
	assert.Equal(t, 2.0, counterWith(runs, CronOutcomeSkipped))

	duration := findMetricFamily(families, "inventory_cron_job_duration_seconds")
	require.NotNil(t, duration)
	assert.Equal(t, uint64(2), duration.GetMetric()[0].GetHistogram().GetSampleCount())

	last := findMetricFamily(families, "inventory_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	assert.Greater(t, last.GetMetric()[0].GetGauge().GetValue(), 0.0)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.Executed("x", time.Second, nil)
	m.Skipped("x")

	NewCronJobMetrics(nil).Executed("", time.Second, errors.New("boom"))
}

func counterWith(f *dto.MetricFamily, outcome string) float64 {
	for _, metric := range f.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
