package hlws

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds the supervisor's configuration. Zero-valued durations
// take the defaults documented on applyDefaults.
type Config struct {
	Endpoint              string
	IntendedSubscriptions []Subscription
	MessageCallback       MessageCallback
	StateCallback         StateCallback
	HealthCheckInterval   time.Duration
	DataTimeout           time.Duration
	WarningThreshold      time.Duration // 0 => DataTimeout / 2
	ConnectDeadline       time.Duration
	SubscribeDeadline     time.Duration
	CloseDeadline         time.Duration
	PingInterval          time.Duration
	Backoff               BackoffConfig
	HealthLogCadence      uint64 // delivered messages between health snapshots; 0 => 1000
	Logger                *zap.Logger
	TransportFactory      TransportFactory // nil => gorilla-backed default
}

func (c *Config) applyDefaults() {
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 5 * time.Second
	}
	if c.DataTimeout <= 0 {
		c.DataTimeout = 60 * time.Second
	}
	if c.WarningThreshold <= 0 {
		c.WarningThreshold = c.DataTimeout / 2
	}
	if c.ConnectDeadline <= 0 {
		c.ConnectDeadline = 30 * time.Second
	}
	if c.SubscribeDeadline <= 0 {
		c.SubscribeDeadline = 15 * time.Second
	}
	if c.CloseDeadline <= 0 {
		c.CloseDeadline = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 10 * time.Second
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = time.Second
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = 60 * time.Second
	}
	if c.Backoff.Multiplier <= 0 {
		c.Backoff.Multiplier = 2.0
	}
	// Backoff.MaxAttempts and Backoff.JitterFraction are not defaulted
	// here: zero means unbounded retries and no jitter respectively,
	// both legal configurations. The operational defaults (10 attempts,
	// 0.25 jitter) live in pkg/config's env layer.
	if c.HealthLogCadence == 0 {
		c.HealthLogCadence = 1000
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Supervisor owns the connection state machine, the intended
// subscription set, the health monitor and the backoff policy. It
// creates, observes and replaces transport sessions one at a time: at
// most one physical session exists at any moment, and the intended set
// is resubscribed in full on every reconnect.
type Supervisor struct {
	cfg      Config
	logger   *zap.Logger
	intended *intendedSet
	health   *HealthMonitor
	backoff  *BackoffPolicy

	mu        sync.RWMutex
	state     ConnectionState
	transport Transport

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	started  atomic.Bool

	messageCount uint64
}

// New creates a Supervisor from cfg, applying defaults for any
// zero-valued field.
func New(cfg Config) *Supervisor {
	cfg.applyDefaults()
	if cfg.TransportFactory == nil {
		cfg.TransportFactory = NewGorillaTransportFactory(cfg.Logger)
	}

	return &Supervisor{
		cfg:      cfg,
		logger:   cfg.Logger,
		intended: newIntendedSet(cfg.IntendedSubscriptions),
		health:   NewHealthMonitor(),
		backoff:  NewBackoffPolicy(cfg.Backoff),
		state:    Disconnected,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start transitions Disconnected → Connecting and runs the supervisor
// loop, blocking the caller until Stop() is called or the state reaches
// Failed. It returns nil on a clean stop, ErrRetryBudgetExhausted if
// the backoff policy gave up.
func (s *Supervisor) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("hlws: supervisor already started")
	}
	defer close(s.doneCh)

	if !s.intended.hasHighFrequencyChannel() {
		s.logger.Warn("no-high-frequency-subscription",
			zap.String("note", "data_timeout will elapse with no traffic unless a heartbeat channel is subscribed"))
	}

	SubscriptionCount.Set(float64(s.intended.count()))

	for {
		if s.stopRequested() {
			s.setState(Disconnected)
			return nil
		}

		s.setState(Connecting)

		fatalCh := make(chan error, 1)
		transport := s.cfg.TransportFactory(s.onMessage, func(err error) {
			s.health.OnError()
			select {
			case fatalCh <- err:
			default:
			}
		})
		s.setTransport(transport)

		if err := transport.Open(s.cfg.Endpoint, s.cfg.ConnectDeadline); err != nil {
			s.health.OnError()
			if s.reconnectOrFail("open-failed", err) {
				return ErrRetryBudgetExhausted
			}
			continue
		}

		subs := s.intended.list()
		if failedSub := s.subscribeAll(transport, subs); failedSub != nil {
			transport.Close(s.cfg.CloseDeadline)
			if s.reconnectOrFail("subscribe-failed", failedSub) {
				return ErrRetryBudgetExhausted
			}
			continue
		}

		if !transport.IsSocketAlive() {
			transport.Close(s.cfg.CloseDeadline)
			if s.reconnectOrFail("socket-dead", ErrSocketDead) {
				return ErrRetryBudgetExhausted
			}
			continue
		}

		s.health.Reset()
		s.backoff.Reset()
		s.setState(Connected)
		s.logger.Info("connected",
			zap.String("endpoint", s.cfg.Endpoint),
			zap.Int("subscription-count", len(subs)))
		ActiveConnections.Set(1)

		transport.StartPing(s.cfg.PingInterval)

		stoppedCleanly, reason, cause := s.monitor(transport, fatalCh)
		transport.Close(s.cfg.CloseDeadline)
		ActiveConnections.Set(0)

		if stoppedCleanly {
			s.setState(Disconnected)
			return nil
		}

		if s.reconnectOrFail(reason, cause) {
			return ErrRetryBudgetExhausted
		}
	}
}

// subscribeAll sends a subscribe frame for every sub in order, aborting
// on the first failure. A failing subscribe restarts the whole session,
// never a partial retry: a send that failed on a suspect socket is not
// worth retrying in place.
func (s *Supervisor) subscribeAll(transport Transport, subs []Subscription) error {
	for _, sub := range subs {
		if err := transport.Subscribe(sub, s.cfg.SubscribeDeadline); err != nil {
			s.health.OnError()
			return err
		}
	}
	return nil
}

// monitor runs the Connected-state loop: it returns (true, "", nil) on
// a clean Stop(), or (false, reason, cause) when the session must be
// torn down and a reconnect attempted.
func (s *Supervisor) monitor(transport Transport, fatalCh <-chan error) (stopped bool, reason string, cause error) {
	ticker := time.NewTicker(s.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return true, "", nil

		case err := <-fatalCh:
			return false, "transport-failed", err

		case <-ticker.C:
			now := time.Now()
			socketAlive := transport.IsSocketAlive()
			dataAlive := s.health.IsAlive(s.cfg.DataTimeout, now)

			if !socketAlive {
				return false, "socket-dead", ErrSocketDead
			}
			if !dataAlive {
				return false, "health-dead", ErrDataStalled
			}
			if s.health.Warning(s.cfg.WarningThreshold, now) {
				s.logger.Warn("data-stream-idle-warning",
					zap.Duration("idle", now.Sub(s.health.Report().LastMessageTime)))
			}
		}
	}
}

// reconnectOrFail transitions to Reconnecting, logs the reason/attempt/
// next-delay, and either sleeps the backoff delay (cancellable by Stop)
// or transitions to Failed and returns true when the retry budget is
// exhausted.
func (s *Supervisor) reconnectOrFail(reason string, cause error) (terminal bool) {
	s.health.OnReconnect()
	ReconnectAttemptsTotal.Inc()
	s.setState(Reconnecting)

	if !s.backoff.ShouldRetry() {
		ReconnectFailuresTotal.Inc()
		s.setState(Failed)
		s.logFinalStats(reason, cause)
		return true
	}

	delay := s.backoff.NextDelay()
	s.backoff.RecordAttempt()
	snap := s.backoff.Snapshot()

	s.logger.Warn("reconnecting",
		zap.String("reason", reason),
		zap.Error(cause),
		zap.Uint32("attempt", snap.Attempt),
		zap.Duration("next-delay", delay))

	select {
	case <-s.stopCh:
	case <-time.After(delay):
	}
	return false
}

func (s *Supervisor) logFinalStats(reason string, cause error) {
	report := s.health.Report()
	s.logger.Error("retry-budget-exhausted",
		zap.String("last-reason", reason),
		zap.Error(cause),
		zap.Uint64("total-messages", report.TotalMessages),
		zap.Uint64("total-reconnects", report.TotalReconnects),
		zap.Uint64("total-errors", report.TotalErrors),
		zap.Float64("uptime-seconds", report.UptimeSeconds))
}

// onMessage is the MessageCallback handed to every transport session.
// It feeds the health monitor, logs a health snapshot every
// HealthLogCadence delivered messages, and forwards the raw frame to
// the application callback.
func (s *Supervisor) onMessage(raw []byte) {
	s.health.OnMessage()

	if s.cfg.HealthLogCadence > 0 {
		n := atomic.AddUint64(&s.messageCount, 1)
		if n%s.cfg.HealthLogCadence == 0 {
			report := s.health.Report()
			s.logger.Info("health-snapshot",
				zap.Uint64("total-messages", report.TotalMessages),
				zap.Float64("uptime-seconds", report.UptimeSeconds),
				zap.Float64("idle-seconds", report.IdleSeconds))
		}
	}

	s.invokeMessageCallback(raw)
}

func (s *Supervisor) invokeMessageCallback(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("message-callback-panic", zap.Any("recover", r))
		}
	}()
	if s.cfg.MessageCallback != nil {
		s.cfg.MessageCallback(raw)
	}
}

// Stop requests graceful termination and blocks until Start returns.
// From Connected, or during the backoff wait, that takes at most one
// CloseDeadline plus a small slack. An Open or Subscribe call already in
// flight is not interrupted: Stop also waits for it to finish or reach
// its own deadline.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.doneCh
	}
}

// UpdateSubscriptions mutates the intended set. The intended set is
// always updated; if currently Connected, a best-effort live
// (un)subscribe is attempted immediately, but its failure does not roll
// back the intended set, which remains the source of truth for the next
// reconnect's resubscription.
func (s *Supervisor) UpdateSubscriptions(add, remove []Subscription) {
	s.intended.add(add)
	s.intended.remove(remove)
	SubscriptionCount.Set(float64(s.intended.count()))

	s.mu.RLock()
	transport := s.transport
	state := s.state
	s.mu.RUnlock()

	if state != Connected || transport == nil {
		return
	}

	for _, sub := range add {
		if err := transport.Subscribe(sub, s.cfg.SubscribeDeadline); err != nil {
			s.logger.Warn("live-subscribe-failed", zap.String("key", sub.Key()), zap.Error(err))
		}
	}
	for _, sub := range remove {
		if err := transport.Unsubscribe(sub, s.cfg.SubscribeDeadline); err != nil {
			s.logger.Warn("live-unsubscribe-failed", zap.String("key", sub.Key()), zap.Error(err))
		}
	}
}

// Stats returns a read-only snapshot: state, health report, backoff
// state and intended subscription count.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	return Stats{
		State:                    state,
		Health:                   s.health.Report(),
		Backoff:                  s.backoff.Snapshot(),
		IntendedSubscriptionCount: s.intended.count(),
	}
}

func (s *Supervisor) stopRequested() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Supervisor) setTransport(t Transport) {
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
}

func (s *Supervisor) setState(newState ConnectionState) {
	s.mu.Lock()
	old := s.state
	s.state = newState
	s.mu.Unlock()

	StateTransitionsTotal.WithLabelValues(newState.String()).Inc()

	if s.cfg.StateCallback != nil {
		s.invokeStateCallback(old, newState)
	}
}

func (s *Supervisor) invokeStateCallback(old, newState ConnectionState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state-callback-panic", zap.Any("recover", r))
		}
	}()
	s.cfg.StateCallback(old, newState)
}
