// Package poller implements the countdown and polling discipline a
// client follows while a boost collection is pending: a fixed countdown,
// a delayed first status check, evenly spaced checks after that, and one
// final check when the countdown hits zero. Checks never overlap and all
// timers die with the session.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckFunc asks the server for the transaction's reconciled status.
type CheckFunc func(ctx context.Context, id uuid.UUID) (boost.Status, error)

// State describes where a session is in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateSettled   State = "settled"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

type Config struct {
	// Countdown is how long the session waits for a terminal status
	// before giving up. Mirrors the payment window.
	Countdown time.Duration
	// InitialDelay is the wait before the first status check. The payer
	// needs a few seconds to even see the prompt.
	InitialDelay time.Duration
	// Interval spaces the checks after the first one.
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Countdown <= 0 {
		c.Countdown = boost.PaymentWindow
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 5 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	return c
}

// Session polls one transaction until it settles, times out or is
// cancelled. A session runs at most once.
type Session struct {
	id     uuid.UUID
	check  CheckFunc
	cfg    Config
	logger zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	state  State
	status boost.Status
	err    error
}

func NewSession(id uuid.UUID, check CheckFunc, cfg Config, logger zerolog.Logger) *Session {
	return &Session{
		id:     id,
		check:  check,
		cfg:    cfg.withDefaults(),
		logger: logger.With().Str("component", "poller").Str("transaction_id", id.String()).Logger(),
		done:   make(chan struct{}),
		state:  StateIdle,
		status: boost.StatusPending,
	}
}

// Begin starts the session's event loop. Calling Begin twice is a no-op.
func (s *Session) Begin(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StatePolling
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
}

// Cancel revokes all pending timers and ends the session. Safe to call
// at any time, including after the session has finished.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when the session has reached a final state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last known transaction status and the error that
// ended the session, if any. Only meaningful once Done is closed.
func (s *Session) Result() (boost.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.err
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	deadline := time.NewTimer(s.cfg.Countdown)
	defer deadline.Stop()
	first := time.NewTimer(s.cfg.InitialDelay)
	defer first.Stop()

	// The ticker only starts after the first check; until then its
	// channel is nil and the select ignores it.
	var ticker *time.Ticker
	var tickC <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.finish(StateCancelled, ctx.Err())
			return

		case <-first.C:
			if s.doCheck(ctx) {
				return
			}
			ticker = time.NewTicker(s.cfg.Interval)
			tickC = ticker.C

		case <-tickC:
			if s.doCheck(ctx) {
				return
			}

		case <-deadline.C:
			// One last check at zero: the server-side expiry guard
			// settles the transaction if nothing else has.
			if s.doCheck(ctx) {
				return
			}
			s.finish(StateTimedOut, nil)
			return
		}
	}
}

// doCheck runs one status check and reports whether the session settled.
// Checks are synchronous within the event loop, so they can never
// overlap; a slow check simply swallows the ticks it slept through.
func (s *Session) doCheck(ctx context.Context) bool {
	status, err := s.check(ctx, s.id)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(StateCancelled, ctx.Err())
			return true
		}
		// Transient failure: keep the countdown running and try again
		// on the next tick.
		s.logger.Warn().Err(err).Msg("status check failed")
		return false
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if status != boost.StatusPending {
		s.finish(StateSettled, nil)
		return true
	}
	return false
}

func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
	s.logger.Debug().Str("state", string(state)).Msg("session finished")
}
