package node

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestMetrics_SetHeightAndMempoolSize(t *testing.T) {
	m := NewMetrics()
	m.SetHeight(42)
	m.SetMempoolSize(7)

	if got := gaugeValue(t, m.heightGauge); got != 42 {
		t.Fatalf("expected height gauge 42, got %v", got)
	}
	if got := gaugeValue(t, m.mempoolSizeGauge); got != 7 {
		t.Fatalf("expected mempool size gauge 7, got %v", got)
	}
}

func TestMetrics_IncValidationError(t *testing.T) {
	m := NewMetrics()
	var before dto.Metric
	if err := m.validationErrors.Write(&before); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	m.IncValidationError()
	var after dto.Metric
	if err := m.validationErrors.Write(&after); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if after.GetCounter().GetValue() != before.GetCounter().GetValue()+1 {
		t.Fatalf("expected counter to increment by 1")
	}
}
