package hlws

import (
	"testing"
	"time"
)

func TestHealthMonitor_IsAliveBeforeTimeout(t *testing.T) {
	h := NewHealthMonitor()
	now := time.Now()
	if !h.IsAlive(time.Minute, now) {
		t.Fatalf("expected fresh monitor to be alive")
	}
}

func TestHealthMonitor_IsAliveAfterTimeout(t *testing.T) {
	h := NewHealthMonitor()
	future := time.Now().Add(2 * time.Minute)
	if h.IsAlive(time.Minute, future) {
		t.Fatalf("expected monitor to be dead after timeout elapses")
	}
}

func TestHealthMonitor_OnMessageResetsIdle(t *testing.T) {
	h := NewHealthMonitor()
	h.OnMessage()
	future := time.Now().Add(30 * time.Second)
	if !h.IsAlive(time.Minute, future) {
		t.Fatalf("expected monitor alive shortly after a message")
	}
}

func TestHealthMonitor_CountersAccumulate(t *testing.T) {
	h := NewHealthMonitor()
	h.OnMessage()
	h.OnMessage()
	h.OnError()
	h.OnReconnect()
	h.OnReconnect()
	h.OnReconnect()

	report := h.Report()
	if report.TotalMessages != 2 {
		t.Fatalf("expected 2 messages, got %d", report.TotalMessages)
	}
	if report.TotalErrors != 1 {
		t.Fatalf("expected 1 error, got %d", report.TotalErrors)
	}
	if report.TotalReconnects != 3 {
		t.Fatalf("expected 3 reconnects, got %d", report.TotalReconnects)
	}
}

func TestHealthMonitor_ResetPreservesCounters(t *testing.T) {
	h := NewHealthMonitor()
	h.OnMessage()
	h.OnError()
	h.Reset()

	report := h.Report()
	if report.TotalMessages != 1 || report.TotalErrors != 1 {
		t.Fatalf("expected counters preserved across Reset, got %+v", report)
	}
	if !h.IsAlive(time.Minute, time.Now()) {
		t.Fatalf("expected idle window restarted by Reset")
	}
}

func TestHealthMonitor_Warning(t *testing.T) {
	h := NewHealthMonitor()
	past := time.Now().Add(-10 * time.Second)
	h.lastMessageTime = past

	if !h.Warning(5*time.Second, time.Now()) {
		t.Fatalf("expected warning once idle exceeds threshold")
	}
	if h.Warning(30*time.Second, time.Now()) {
		t.Fatalf("did not expect warning below threshold")
	}
}

func TestHealthMonitor_ReportDerivedFields(t *testing.T) {
	h := NewHealthMonitor()
	time.Sleep(5 * time.Millisecond)
	report := h.Report()
	if report.UptimeSeconds <= 0 {
		t.Fatalf("expected positive uptime, got %v", report.UptimeSeconds)
	}
	if report.IdleSeconds < 0 {
		t.Fatalf("expected non-negative idle, got %v", report.IdleSeconds)
	}
}
