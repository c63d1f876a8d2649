package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("env_monitor_test", prometheus.NewRegistry())

	c.RecordAPIRequest("/api/methane/yearly", "GET", "200")
	c.RecordAPIRequest("/api/methane/yearly", "GET", "200")
	c.RecordAPIError("validation_error", "/api/sensors/readings")
	c.RecordSensorReading("CO2", "manual")
	c.RecordIngestionError("read_error")
	c.RecordDBError("query_error")

	if got := testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/methane/yearly", "GET", "200")); got != 2 {
		t.Errorf("api_requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("validation_error", "/api/sensors/readings")); got != 1 {
		t.Errorf("api_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.SensorReadingsTotal.WithLabelValues("CO2", "manual")); got != 1 {
		t.Errorf("sensor_readings_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.IngestionErrorsTotal.WithLabelValues("read_error")); got != 1 {
		t.Errorf("ingestion_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.DBErrorsTotal.WithLabelValues("query_error")); got != 1 {
		t.Errorf("db_errors_total = %v, want 1", got)
	}
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Registering twice on separate registries must not panic
	NewCollector("env_monitor_test", prometheus.NewRegistry())
	NewCollector("env_monitor_test", prometheus.NewRegistry())
}

func TestCollector_ConnectionPool(t *testing.T) {
	c := NewCollector("env_monitor_test", prometheus.NewRegistry())
	c.UpdateDBConnectionPool(2, 3, 5)

	if got := testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")); got != 5 {
		t.Errorf("db_connection_pool{total} = %v, want 5", got)
	}
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("env_monitor_test", prometheus.NewRegistry())
	timer := c.NewTimer(c.IngestionDuration)
	time.Sleep(time.Millisecond)

	if d := timer.ObserveDuration(); d <= 0 {
		t.Errorf("duration = %v, want > 0", d)
	}
	if n := testutil.CollectAndCount(c.IngestionDuration); n != 1 {
		t.Errorf("collected %d series, want 1", n)
	}
}
