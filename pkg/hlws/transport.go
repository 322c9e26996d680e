package hlws

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Transport is the capability the supervisor needs from a WebSocket
// library: open a connection, send text frames, receive decoded text
// frames, close, and expose a non-blocking liveness probe on the
// underlying socket handle. Any library offering these operations can
// back it; gorillaTransport is the concrete adapter used in production.
//
// One Transport instance is one physical session: its lifetime runs
// from the supervisor's Connecting entry to the next Reconnecting or
// Disconnected entry. The supervisor creates a fresh instance via
// TransportFactory on every connect cycle.
type Transport interface {
	// Open establishes the connection within deadline. It must return
	// only after the socket reports open and ready to send, or a
	// timeout/error before deadline elapses.
	Open(endpoint string, deadline time.Duration) error
	// Subscribe serializes and sends one subscribe frame within
	// deadline. A successful send is treated as a successful
	// subscription; the venue sends no per-subscription ack.
	Subscribe(sub Subscription, deadline time.Duration) error
	// Unsubscribe serializes and sends one unsubscribe frame within
	// deadline.
	Unsubscribe(sub Subscription, deadline time.Duration) error
	// StartPing launches a background task sending a ping frame every
	// interval, stopping when the session is closed.
	StartPing(interval time.Duration)
	// Close signals the socket to close and joins background tasks,
	// returning within deadline even if the socket is wedged; past
	// deadline the workers are abandoned.
	Close(deadline time.Duration)
	// IsSocketAlive is a cheap, non-blocking predicate combining: the
	// session exists and is ready, the reader task is still running,
	// the socket handle still looks valid, and no terminal error has
	// been recorded. Any single false answer yields false; this is
	// what catches a zombie connection where the TCP socket looks open
	// but the reader or the handle has quietly died.
	IsSocketAlive() bool
}

// TransportFactory builds a fresh Transport for one connect cycle.
// onMessage is invoked once per inbound data frame (after control
// frames are filtered); onFatal is invoked once, from the reader or
// ping task, the first time the session observes an unrecoverable I/O
// error.
type TransportFactory func(onMessage MessageCallback, onFatal func(error)) Transport

// NewGorillaTransportFactory returns a TransportFactory backed by
// github.com/gorilla/websocket.
func NewGorillaTransportFactory(logger *zap.Logger) TransportFactory {
	return func(onMessage MessageCallback, onFatal func(error)) Transport {
		return &gorillaTransport{
			logger:    logger,
			onMessage: onMessage,
			onFatal:   onFatal,
			stopCh:    make(chan struct{}),
		}
	}
}

type gorillaTransport struct {
	logger    *zap.Logger
	onMessage MessageCallback
	onFatal   func(error)

	mu   sync.RWMutex
	conn *websocket.Conn

	// writeMu serializes text-frame writes: gorilla/websocket permits at
	// most one concurrent writer, and the ping task writes on its own
	// goroutine while Subscribe/Unsubscribe write on deadline workers.
	writeMu sync.Mutex

	ready       atomic.Bool
	readerAlive atomic.Bool
	failed      atomic.Bool
	fatalOnce   sync.Once

	stopCh chan struct{}
	wg     sync.WaitGroup

	connectedAt time.Time
}

type dialOutcome struct {
	conn *websocket.Conn
	err  error
}

func (t *gorillaTransport) Open(endpoint string, deadline time.Duration) error {
	url := normalizeEndpoint(endpoint)
	resultCh := make(chan dialOutcome, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deadline)
		defer cancel()
		dialer := websocket.Dialer{HandshakeTimeout: deadline}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		resultCh <- dialOutcome{conn: conn, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return fmt.Errorf("%w: %v", ErrOpenFailed, res.err)
		}
		t.armConnection(res.conn)
		return nil
	case <-time.After(deadline):
		// Abandon the dial: if it eventually completes, close whatever
		// socket it produced so we don't leak an fd the supervisor
		// never learns about.
		go func() {
			res := <-resultCh
			if res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return ErrOpenTimeout
	}
}

func (t *gorillaTransport) armConnection(conn *websocket.Conn) {
	conn.SetPongHandler(func(string) error { return nil })

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.connectedAt = time.Now()
	t.ready.Store(true)
	t.readerAlive.Store(true)

	t.wg.Add(1)
	go t.readLoop()
}

func (t *gorillaTransport) readLoop() {
	defer t.wg.Done()
	defer t.readerAlive.Store(false)

	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.failed.Store(true)
			ConnectionDuration.Observe(time.Since(t.connectedAt).Seconds())
			t.reportFatal(err)
			return
		}

		if isControlFrame(data) {
			continue
		}

		MessagesReceivedTotal.Inc()
		t.dispatch(data)
	}
}

func (t *gorillaTransport) dispatch(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			if t.logger != nil {
				t.logger.Error("message-callback-panic", zap.Any("recover", r))
			}
		}
	}()
	start := time.Now()
	if t.onMessage != nil {
		t.onMessage(data)
	}
	MessageLatencySeconds.Observe(time.Since(start).Seconds())
}

func (t *gorillaTransport) reportFatal(err error) {
	t.fatalOnce.Do(func() {
		if t.onFatal != nil {
			t.onFatal(err)
		}
	})
}

func (t *gorillaTransport) Subscribe(sub Subscription, deadline time.Duration) error {
	frame, err := encodeSubscribe(sub)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSubscribeFailed, err)
	}
	return t.writeWithDeadline(frame, deadline, ErrSubscribeTimeout, ErrSubscribeFailed)
}

func (t *gorillaTransport) Unsubscribe(sub Subscription, deadline time.Duration) error {
	frame, err := encodeUnsubscribe(sub)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSubscribeFailed, err)
	}
	return t.writeWithDeadline(frame, deadline, ErrSubscribeTimeout, ErrSubscribeFailed)
}

func (t *gorillaTransport) writeWithDeadline(frame []byte, deadline time.Duration, timeoutErr, failErr error) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%w: no connection", failErr)
	}

	resultCh := make(chan error, 1)
	go func() {
		t.writeMu.Lock()
		defer t.writeMu.Unlock()
		resultCh <- conn.WriteMessage(websocket.TextMessage, frame)
	}()

	select {
	case err := <-resultCh:
		if err != nil {
			return fmt.Errorf("%w: %v", failErr, err)
		}
		return nil
	case <-time.After(deadline):
		return timeoutErr
	}
}

func (t *gorillaTransport) StartPing(interval time.Duration) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				frame, err := encodePing()
				if err != nil {
					continue
				}
				t.mu.RLock()
				conn := t.conn
				t.mu.RUnlock()
				if conn == nil {
					continue
				}
				t.writeMu.Lock()
				err = conn.WriteMessage(websocket.TextMessage, frame)
				t.writeMu.Unlock()
				if err != nil {
					t.failed.Store(true)
					t.reportFatal(err)
					return
				}
			}
		}
	}()
}

func (t *gorillaTransport) Close(deadline time.Duration) {
	select {
	case <-t.stopCh:
		// already closed
	default:
		close(t.stopCh)
	}

	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn != nil {
		_ = conn.Close()
	}

	doneCh := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(deadline):
		// Abandon the workers; cleanup is already best-effort and the
		// socket has been told to close.
	}
}

func (t *gorillaTransport) IsSocketAlive() bool {
	if !t.ready.Load() || !t.readerAlive.Load() || t.failed.Load() {
		return false
	}

	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return false
	}

	// Cheap, non-blocking probe of the underlying handle: setting a
	// read deadline is a local syscall that fails immediately if the fd
	// has already been invalidated, catching the zombie case where the
	// reader hasn't yet observed the failure.
	if err := conn.UnderlyingConn().SetReadDeadline(time.Now().Add(time.Minute)); err != nil {
		return false
	}

	return true
}
