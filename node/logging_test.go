package node

import "testing"

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewLogger("not-a-real-level")
	if log.GetLevel().String() != "info" {
		t.Fatalf("expected fallback to info level, got %q", log.GetLevel().String())
	}
}

func TestNewLogger_RespectsConfiguredLevel(t *testing.T) {
	log := NewLogger("debug")
	if log.GetLevel().String() != "debug" {
		t.Fatalf("expected debug level, got %q", log.GetLevel().String())
	}
}

func TestNewCorrelationID_ProducesDistinctValues(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()
	if a == "" || b == "" || a == b {
		t.Fatalf("expected two distinct non-empty correlation IDs, got %q and %q", a, b)
	}
}
