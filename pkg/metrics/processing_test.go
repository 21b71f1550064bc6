package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestProcessingMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewProcessingMetrics(reg)

	metrics.ObserveDuration("distributor_price_list", "excel", 120*time.Millisecond)
	metrics.IncOutcome("distributor_price_list", "excel", "handled")
	metrics.AddRows("distributor_price_list", 42)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchProcessingCounter(mfs, "quote_file_processing_total", "outcome", "handled"); err != nil {
		t.Fatalf("fetch outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected outcome=1, got %f", got)
	}

	if got, err := fetchProcessingCounter(mfs, "imported_rows_total", "file_type", "distributor_price_list"); err != nil {
		t.Fatalf("fetch rows: %v", err)
	} else if got != 42 {
		t.Fatalf("expected rows=42, got %f", got)
	}

	if mf := findProcessingFamily(mfs, "quote_file_processing_duration_seconds"); mf == nil {
		t.Fatal("duration histogram not registered")
	} else if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestProcessingMetricsNilReceiverIsNoop(t *testing.T) {
	var metrics *ProcessingMetrics
	metrics.ObserveDuration("a", "b", time.Second)
	metrics.IncOutcome("a", "b", "handled")
	metrics.AddRows("a", 1)
}

func fetchProcessingCounter(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findProcessingFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findProcessingFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
