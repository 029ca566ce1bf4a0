package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"IntelliMarket/internal/domain/models"
)

// ValidatorState is the phase of a SymbolValidator.
type ValidatorState int

const (
	StateIdle ValidatorState = iota
	StateScheduled
	StateInFlight
)

func (s ValidatorState) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateInFlight:
		return "in-flight"
	}
	return "idle"
}

var (
	// ErrSuperseded is delivered to a callback whose validation was replaced
	// by a newer Schedule call.
	ErrSuperseded = errors.New("validation superseded")
	// ErrCanceled is delivered to a callback whose validation was canceled.
	ErrCanceled = errors.New("validation canceled")
)

// ValidateFunc performs one lookup.
type ValidateFunc func(ctx context.Context, symbol string) (*models.SymbolValidation, error)

// ValidationCallback receives the outcome of a scheduled validation. It is
// called exactly once per Schedule.
type ValidationCallback func(*models.SymbolValidation, error)

// SymbolValidator debounces lookups: each Schedule cancels whatever is
// pending or in flight and starts a new delay. Only the latest call reaches
// the backend once input settles.
type SymbolValidator struct {
	validate ValidateFunc
	delay    time.Duration

	mu      sync.Mutex
	state   ValidatorState
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	pending ValidationCallback
}

func NewSymbolValidator(validate ValidateFunc, delay time.Duration) *SymbolValidator {
	return &SymbolValidator{validate: validate, delay: delay}
}

// Schedule validates symbol after the debounce delay and reports to cb.
func (v *SymbolValidator) Schedule(symbol string, cb ValidationCallback) {
	v.mu.Lock()
	prev := v.resetLocked()
	v.gen++
	gen := v.gen
	v.state = StateScheduled
	v.pending = cb
	v.timer = time.AfterFunc(v.delay, func() { v.fire(gen, symbol) })
	v.mu.Unlock()

	if prev != nil {
		prev(nil, ErrSuperseded)
	}
}

// Cancel drops any pending or in-flight validation.
func (v *SymbolValidator) Cancel() {
	v.mu.Lock()
	prev := v.resetLocked()
	v.gen++
	v.state = StateIdle
	v.mu.Unlock()

	if prev != nil {
		prev(nil, ErrCanceled)
	}
}

// State returns the current phase.
func (v *SymbolValidator) State() ValidatorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *SymbolValidator) fire(gen uint64, symbol string) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.state = StateInFlight
	v.cancel = cancel
	v.timer = nil
	v.mu.Unlock()

	res, err := v.validate(ctx, symbol)
	cancel()

	v.mu.Lock()
	if gen != v.gen {
		// superseded while in flight; that caller was already notified
		v.mu.Unlock()
		return
	}
	cb := v.pending
	v.pending = nil
	v.cancel = nil
	v.state = StateIdle
	v.mu.Unlock()

	if cb != nil {
		cb(res, err)
	}
}

// resetLocked stops the timer, cancels an in-flight call and hands back
// the callback that must be told.
func (v *SymbolValidator) resetLocked() ValidationCallback {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	prev := v.pending
	v.pending = nil
	return prev
}
