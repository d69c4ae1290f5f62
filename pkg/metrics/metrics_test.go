package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStockMetricsExportsMovements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStockMetrics(reg)
	m.ObserveMovement("order", -3)
	m.ObserveMovement("order", -2)
	m.ObserveMovement("batch_add", 10)
	m.ObserveMovement("noop", 0)
	m.SetDrift("COLA-330", -4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "distro_stock_movements_total", map[string]string{"reason": "order", "direction": "out"}); err != nil {
		t.Fatalf("fetch movements: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 order movements, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "distro_stock_units_total", map[string]string{"reason": "order", "direction": "out"}); err != nil {
		t.Fatalf("fetch units: %v", err)
	} else if got != 5 {
		t.Fatalf("expected 5 units out, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "distro_stock_units_total", map[string]string{"reason": "batch_add", "direction": "in"}); err != nil {
		t.Fatalf("fetch units in: %v", err)
	} else if got != 10 {
		t.Fatalf("expected 10 units in, got %f", got)
	}

	if _, err := fetchCounterValue(mfs, "distro_stock_movements_total", map[string]string{"reason": "noop"}); err == nil {
		t.Fatalf("zero deltas must not be recorded")
	}

	mf := findMetricFamily(mfs, "distro_stock_reconcile_drift")
	if mf == nil || len(mf.GetMetric()) != 1 || mf.GetMetric()[0].GetGauge().GetValue() != -4 {
		t.Fatalf("unexpected drift gauge %v", mf)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("POST", "/api/orders", 200, 120*time.Millisecond)
	m.Observe("POST", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "distro_http_requests_total", map[string]string{"route": "/api/orders", "status": "200"}); err != nil || got != 1 {
		t.Fatalf("expected one order request, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "distro_http_requests_total", map[string]string{"route": "unknown", "status": "404"}); err != nil || got != 1 {
		t.Fatalf("expected unknown route label, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "distro_http_request_duration_seconds")
	if mf == nil {
		t.Fatalf("duration histogram missing")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewStockMetrics(nil).ObserveMovement("order", 1)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
	var m *StockMetrics
	m.SetDrift("x", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == name && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
