// Package progress provides a time-driven progress indicator for long
// backend calls. The percentage is cosmetic: it creeps toward a ceiling
// while the call is pending and only reaches 100 on Complete.
package progress

import (
	"sync"
	"time"
)

const (
	DefaultInterval  = 500 * time.Millisecond
	DefaultHideDelay = time.Second

	// ceiling is approached but never reached while running.
	ceiling = 95.0
	// stepFraction of the remaining distance to ceiling is added per tick.
	stepFraction = 0.1
)

// Snapshot is the observable state of a Tracker.
type Snapshot struct {
	Percent int  `json:"percent"`
	Visible bool `json:"visible"`
	Running bool `json:"running"`
}

// Tracker animates a progress value on a fixed interval. It is safe for
// concurrent use; listeners are called outside the lock.
type Tracker struct {
	interval  time.Duration
	hideDelay time.Duration

	mu       sync.Mutex
	percent  float64
	visible  bool
	running  bool
	gen      uint64
	stop     chan struct{}
	hide     *time.Timer
	listener func(Snapshot)
	subs     map[uint64]func(Snapshot)
	nextSub  uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithHideDelay sets how long a completed tracker stays visible.
func WithHideDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.hideDelay = d
		}
	}
}

// OnChange registers fn to be called after every state change.
func OnChange(fn func(Snapshot)) Option {
	return func(t *Tracker) { t.listener = fn }
}

// New creates an idle, hidden tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{interval: DefaultInterval, hideDelay: DefaultHideDelay}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start resets the tracker to 0, shows it and begins ticking. Calling Start
// on a running tracker restarts it.
func (t *Tracker) Start() {
	t.mu.Lock()
	t.haltLocked()
	t.gen++
	t.percent = 0
	t.visible = true
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.gen, t.stop)
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

// Complete jumps to 100 and hides the tracker after the hide delay.
// It is a no-op on a tracker that was never started.
func (t *Tracker) Complete() {
	t.mu.Lock()
	if !t.visible {
		t.mu.Unlock()
		return
	}
	t.haltLocked()
	t.percent = 100
	gen := t.gen
	t.hide = time.AfterFunc(t.hideDelay, func() { t.hideIf(gen) })
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

// Stop halts ticking and hides the tracker immediately. It must be called
// when the owning operation fails.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.visible && !t.running {
		t.mu.Unlock()
		return
	}
	t.haltLocked()
	t.gen++
	t.percent = 0
	t.visible = false
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

// Set raises the value to p, for callers that know real progress. It never
// lowers the value and stays below 100 until Complete.
func (t *Tracker) Set(p int) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	v := float64(p)
	if v > 99 {
		v = 99
	}
	if v <= t.percent {
		t.mu.Unlock()
		return
	}
	t.percent = v
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

// Percent returns the current whole percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.percent)
}

// Visible reports whether the tracker should be displayed.
func (t *Tracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Running reports whether the tracker is ticking.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) run(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.advance(gen)
		}
	}
}

// advance performs one tick for the run identified by gen.
func (t *Tracker) advance(gen uint64) {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.percent += (ceiling - t.percent) * stepFraction
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

func (t *Tracker) hideIf(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.running || !t.visible {
		t.mu.Unlock()
		return
	}
	t.visible = false
	t.hide = nil
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
}

// haltLocked stops the ticking goroutine and any pending hide.
func (t *Tracker) haltLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	if t.hide != nil {
		t.hide.Stop()
		t.hide = nil
	}
	t.running = false
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{Percent: int(t.percent), Visible: t.visible, Running: t.running}
}

// SetListener replaces the change listener.
func (t *Tracker) SetListener(fn func(Snapshot)) {
	t.mu.Lock()
	t.listener = fn
	t.mu.Unlock()
}

// Subscribe adds fn alongside the listener until the returned func is
// called. fn must not block.
func (t *Tracker) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[uint64]func(Snapshot))
	}
	t.nextSub++
	id := t.nextSub
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) notify(s Snapshot) {
	t.mu.Lock()
	fns := make([]func(Snapshot), 0, len(t.subs)+1)
	if t.listener != nil {
		fns = append(fns, t.listener)
	}
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
