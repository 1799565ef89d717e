// Package countdown provides a cancelable one-shot countdown that reports
// progress on a fixed cadence.
//
// Progress is derived from elapsed wall-clock time, so late or dropped ticks
// never stretch the total duration. Each run is identified by a sequence
// number; a tick that was already queued when the run was cancelled or
// completed carries a stale number and is discarded.
package countdown

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/smazurov/shutterdeck/internal/logging"
)

// DefaultInterval gives roughly 60 progress updates per second.
const DefaultInterval = 16 * time.Millisecond

// ErrRunning is returned by Start while a countdown is in progress.
var ErrRunning = errors.New("countdown already running")

// Handlers receive countdown notifications. Any of them may be nil.
type Handlers struct {
	// OnProgress receives progress in [0,1], non-decreasing within a run.
	OnProgress func(progress float64)
	// OnComplete fires once, right after progress 1 was reported.
	OnComplete func()
	// OnCleared fires when a running countdown is cancelled.
	OnCleared func()
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the time source. Tests pass a clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(t *Timer) {
		t.clock = c
	}
}

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithDispatcher routes tick handling through fn, typically onto the owner's
// event loop. fn returns false when the loop is gone.
func WithDispatcher(fn func(func()) bool) Option {
	return func(t *Timer) {
		t.dispatch = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Timer) {
		t.logger = l
	}
}

// Timer is a countdown with at most one active run.
type Timer struct {
	clock    clock.Clock
	interval time.Duration
	dispatch func(func()) bool
	handlers Handlers
	logger   logging.Logger

	mu       sync.Mutex
	running  bool
	run      uint64
	started  time.Time
	duration time.Duration
	last     float64
	ticker   *clock.Ticker
	stop     chan struct{}
}

// New creates an idle timer.
func New(h Handlers, opts ...Option) *Timer {
	t := &Timer{
		clock:    clock.New(),
		interval: DefaultInterval,
		handlers: h,
		dispatch: func(fn func()) bool {
			fn()
			return true
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.GetLogger("countdown")
	}
	return t
}

// Start begins a countdown of duration d. A non-positive d completes on the
// first tick.
func (t *Timer) Start(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrRunning
	}

	t.run++
	t.running = true
	t.started = t.clock.Now()
	t.duration = d
	t.last = 0
	t.ticker = t.clock.Ticker(t.interval)
	t.stop = make(chan struct{})

	go t.loop(t.run, t.ticker, t.stop)

	t.logger.Debug("Countdown started", "run", t.run, "duration", d)
	return nil
}

// Cancel stops a running countdown without completing it. It reports whether
// a countdown was running; cancelling an idle timer is a no-op.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return false
	}
	run := t.run
	t.stopLocked()
	t.mu.Unlock()

	t.logger.Debug("Countdown cancelled", "run", run)
	if t.handlers.OnCleared != nil {
		t.handlers.OnCleared()
	}
	return true
}

// Running reports whether a countdown is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Progress returns the last reported progress of the running countdown.
func (t *Timer) Progress() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0, false
	}
	return t.last, true
}

func (t *Timer) loop(run uint64, ticker *clock.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.dispatch(func() { t.tick(run) }) {
				return
			}
		}
	}
}

// tick recomputes progress for run and completes it when elapsed time has
// caught up with the duration.
func (t *Timer) tick(run uint64) {
	t.mu.Lock()
	if !t.running || run != t.run {
		t.mu.Unlock()
		return
	}

	progress := 1.0
	if t.duration > 0 {
		progress = float64(t.clock.Since(t.started)) / float64(t.duration)
		if progress > 1 {
			progress = 1
		}
	}
	if progress < t.last {
		progress = t.last
	}
	t.last = progress

	done := progress >= 1
	if done {
		t.stopLocked()
	}
	t.mu.Unlock()

	if t.handlers.OnProgress != nil {
		t.handlers.OnProgress(progress)
	}
	if done {
		t.logger.Debug("Countdown completed", "run", run)
		if t.handlers.OnComplete != nil {
			t.handlers.OnComplete()
		}
	}
}

func (t *Timer) stopLocked() {
	t.running = false
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}
