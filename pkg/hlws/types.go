// Package hlws implements a resilient supervisor for a single long-lived
// WebSocket subscription session to the Hyperliquid streaming venue.
package hlws

import (
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// ConnectionState is the supervisor's state machine variant. It has a
// single writer: the supervisor loop.
type ConnectionState int

const (
	// Disconnected is the initial and terminal-idle state; no transport
	// session exists.
	Disconnected ConnectionState = iota
	// Connecting means a transport session is being established.
	Connecting
	// Connected means every subscription in the intended set has been
	// sent on the current session and the health monitor is armed.
	Connected
	// Reconnecting means the previous session ended and the supervisor is
	// waiting out the backoff delay before trying again.
	Reconnecting
	// Failed is terminal: the retry budget is exhausted.
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string form, so the /stats HTTP
// surface reports "connected" rather than an integer.
func (s ConnectionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the string form produced by MarshalJSON.
func (s *ConnectionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "disconnected":
		*s = Disconnected
	case "connecting":
		*s = Connecting
	case "connected":
		*s = Connected
	case "reconnecting":
		*s = Reconnecting
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("unknown connection state %q", name)
	}
	return nil
}

// Subscription is an opaque descriptor the transport serializes into a
// subscribe frame. Hyperliquid's venue subscriptions carry a type plus,
// for most types, a coin/user qualifier.
type Subscription struct {
	Type     string `json:"type"`
	Coin     string `json:"coin,omitempty"`
	Interval string `json:"interval,omitempty"` // candle subscriptions
	User     string `json:"user,omitempty"`     // userEvents / userFills
}

// Key is a stable identity for the intended-set map; two Subscription
// values with the same Key describe the same logical channel.
func (s Subscription) Key() string {
	return s.Type + "|" + s.Coin + "|" + s.Interval + "|" + s.User
}

// HealthStats is the snapshot returned by HealthMonitor.Report. Derived
// fields (UptimeSeconds, IdleSeconds) are computed at read time.
type HealthStats struct {
	TotalMessages   uint64
	TotalReconnects uint64
	TotalErrors     uint64
	StartTime       time.Time
	LastMessageTime time.Time
	UptimeSeconds   float64
	IdleSeconds     float64
}

// BackoffSnapshot is a read-only view of BackoffPolicy state for
// observability (Supervisor.Stats).
type BackoffSnapshot struct {
	Attempt          uint32
	LastAttemptTime  time.Time
	NextDelayWouldBe time.Duration
}

// Stats is the read-only observation surface returned by
// Supervisor.Stats(): state, health report, backoff state and intended
// subscription count.
type Stats struct {
	State                     ConnectionState
	Health                    HealthStats
	Backoff                   BackoffSnapshot
	IntendedSubscriptionCount int
}

// StateCallback is invoked synchronously on every transition. It must be
// non-blocking; panics are recovered and logged, never propagated.
type StateCallback func(from, to ConnectionState)

// MessageCallback receives one decoded inbound venue frame per call, in
// the order frames arrive on the socket within a session. Panics are
// recovered and logged; they never stop the reader.
type MessageCallback func(raw []byte)

// intendedSet is the caller-declared list of channels the supervisor
// keeps active across reconnects. It is mutated only by explicit caller
// action (UpdateSubscriptions), never by the supervisor loop itself.
type intendedSet struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

func newIntendedSet(initial []Subscription) *intendedSet {
	s := &intendedSet{subs: make(map[string]Subscription, len(initial))}
	for _, sub := range initial {
		s.subs[sub.Key()] = sub
	}
	return s
}

func (s *intendedSet) list() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *intendedSet) add(subs []Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		s.subs[sub.Key()] = sub
	}
}

func (s *intendedSet) remove(subs []Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		delete(s.subs, sub.Key())
	}
}

func (s *intendedSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// hasHighFrequencyChannel reports whether the set contains a channel
// known to stream at high frequency. Callers relying only on sparse
// business channels will see the health monitor declare death every
// data-timeout window after connect, since no frames arrive to prove
// the stream alive.
func (s *intendedSet) hasHighFrequencyChannel() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		switch sub.Type {
		case "allMids", "trades", "l2Book", "bbo":
			return true
		}
	}
	return false
}
