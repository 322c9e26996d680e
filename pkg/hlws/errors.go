package hlws

import "errors"

// Sentinel errors wrapped with context via fmt.Errorf("...: %w", ...)
// at the call site, checkable with errors.Is.
var (
	// ErrOpenTimeout means the socket did not reach ready within the
	// connect deadline.
	ErrOpenTimeout = errors.New("hlws: open timed out")
	// ErrOpenFailed means the dial itself returned an error.
	ErrOpenFailed = errors.New("hlws: open failed")
	// ErrSubscribeTimeout means a subscribe send blocked past its
	// deadline.
	ErrSubscribeTimeout = errors.New("hlws: subscribe timed out")
	// ErrSubscribeFailed means a subscribe send returned an error.
	ErrSubscribeFailed = errors.New("hlws: subscribe failed")
	// ErrSocketDead means the post-subscribe or periodic liveness probe
	// found the socket no longer alive.
	ErrSocketDead = errors.New("hlws: socket not alive")
	// ErrDataStalled means the health monitor declared the stream dead
	// (no inbound frame within data_timeout).
	ErrDataStalled = errors.New("hlws: data stalled")
	// ErrRetryBudgetExhausted means the backoff policy refused to
	// continue; the supervisor has moved to Failed.
	ErrRetryBudgetExhausted = errors.New("hlws: retry budget exhausted")
	// ErrStopped names an exit caused by Stop; it is not a failure. Start
	// does not return it: after a clean stop Start returns nil.
	ErrStopped = errors.New("hlws: stopped")
)
