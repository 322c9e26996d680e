package hlws

import (
	"sync"
	"time"
)

// HealthMonitor tracks last-message timestamp and cumulative counters,
// answering "is the stream alive" under a configurable timeout. It is
// stateless about which channels deliver data: any inbound frame counts
// as evidence of life (see the heartbeat-channel operational note on
// intendedSet.hasHighFrequencyChannel).
//
// Liveness here is data-driven rather than pong-driven: a TCP-level
// pong only proves the socket is open, not that venue data is flowing,
// and the two fail independently.
type HealthMonitor struct {
	mu sync.Mutex

	startTime       time.Time
	lastMessageTime time.Time
	totalMessages   uint64
	totalReconnects uint64
	totalErrors     uint64
}

// NewHealthMonitor creates a HealthMonitor with StartTime and
// LastMessageTime set to now.
func NewHealthMonitor() *HealthMonitor {
	now := time.Now()
	return &HealthMonitor{startTime: now, lastMessageTime: now}
}

// OnMessage records one inbound frame: advances LastMessageTime and
// increments TotalMessages.
func (h *HealthMonitor) OnMessage() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastMessageTime = time.Now()
	h.totalMessages++
}

// OnError increments TotalErrors.
func (h *HealthMonitor) OnError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totalErrors++
}

// OnReconnect increments TotalReconnects.
func (h *HealthMonitor) OnReconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totalReconnects++
}

// IsAlive reports whether now - LastMessageTime < timeout.
func (h *HealthMonitor) IsAlive(timeout time.Duration, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return now.Sub(h.lastMessageTime) < timeout
}

// Warning reports whether now - LastMessageTime >= warningThreshold,
// used to emit a log line without yet declaring death. Callers must
// ensure warningThreshold < the timeout passed to IsAlive.
func (h *HealthMonitor) Warning(warningThreshold time.Duration, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return now.Sub(h.lastMessageTime) >= warningThreshold
}

// Reset sets LastMessageTime to now; cumulative counters are preserved
// so observers see history across reconnects. Called on every
// (re)connect's entry into Connected so a fresh idle window begins.
func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastMessageTime = time.Now()
}

// Report returns a snapshot with derived UptimeSeconds/IdleSeconds
// computed at read time.
func (h *HealthMonitor) Report() HealthStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	return HealthStats{
		TotalMessages:   h.totalMessages,
		TotalReconnects: h.totalReconnects,
		TotalErrors:     h.totalErrors,
		StartTime:       h.startTime,
		LastMessageTime: h.lastMessageTime,
		UptimeSeconds:   now.Sub(h.startTime).Seconds(),
		IdleSeconds:     now.Sub(h.lastMessageTime).Seconds(),
	}
}
