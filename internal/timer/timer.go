// Package timer tracks the elapsed time of a scoring round.
//
// Elapsed time is always derived from the wall clock relative to a baseline
// captured on start, so stopping and resuming never drifts. While running, a
// refresh goroutine recomputes the elapsed time on a fixed cadence and hands
// it to the tick callback.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRefresh is the display refresh cadence.
const DefaultRefresh = 200 * time.Millisecond

type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Ticker is the subset of *time.Ticker used by the refresh loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall time so tests can drive the timer.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

type systemTicker struct{ t *time.Ticker }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

type Option func(*Timer)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(t *Timer) { t.clock = c } }

// WithRefresh sets the refresh cadence. Non-positive values keep the default.
func WithRefresh(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.refresh = d
		}
	}
}

// OnTick is called from the refresh goroutine with the current elapsed time.
func OnTick(fn func(time.Duration)) Option { return func(t *Timer) { t.onTick = fn } }

// OnCommit is called with whole elapsed seconds when the timer stops or resets.
func OnCommit(fn func(sec int)) Option { return func(t *Timer) { t.onCommit = fn } }

// Timer is a start/stop/reset stopwatch. It is safe for concurrent use.
// Callbacks run without the timer lock held.
type Timer struct {
	clock    Clock
	refresh  time.Duration
	onTick   func(time.Duration)
	onCommit func(int)

	mu       sync.Mutex
	state    State
	baseline time.Time
	elapsed  time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func New(opts ...Option) *Timer {
	t := &Timer{clock: systemClock{}, refresh: DefaultRefresh}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Elapsed returns the current elapsed time.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Timer) elapsedLocked() time.Duration {
	if t.state == Running {
		return t.clock.Now().Sub(t.baseline)
	}
	return t.elapsed
}

// Restore sets the elapsed time of a stopped timer, e.g. when a persisted
// session is resumed. It is ignored while running.
func (t *Timer) Restore(sec int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Running {
		return
	}
	if sec <= 0 {
		t.state, t.elapsed = Idle, 0
		return
	}
	t.state, t.elapsed = Stopped, time.Duration(sec)*time.Second
}

// Start resumes counting from the current elapsed time. It reports false if
// the timer was already running.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Running {
		return false
	}
	t.baseline = t.clock.Now().Add(-t.elapsed)
	t.state = Running
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.clock.NewTicker(t.refresh), t.stop, t.done)
	return true
}

// Stop freezes the elapsed time and returns it in whole seconds. The second
// result is false if the timer was not running.
func (t *Timer) Stop() (int, bool) {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return 0, false
	}
	t.elapsed = t.clock.Now().Sub(t.baseline)
	t.state = Stopped
	sec := int(t.elapsed / time.Second)
	stop, done := t.detachLocked()
	t.mu.Unlock()

	t.halt(stop, done)
	t.commit(sec)
	return sec, true
}

// Toggle starts an idle or stopped timer and stops a running one. It returns
// the new state and the committed seconds when it stopped.
func (t *Timer) Toggle() (State, int) {
	if t.Start() {
		return Running, 0
	}
	if sec, ok := t.Stop(); ok {
		return Stopped, sec
	}
	// lost a race with another Stop; report what we see now
	return t.State(), int(t.Elapsed() / time.Second)
}

// Reset cancels the refresh loop and zeroes the elapsed time.
func (t *Timer) Reset() {
	t.mu.Lock()
	stop, done := t.detachLocked()
	t.state = Idle
	t.elapsed = 0
	t.mu.Unlock()

	t.halt(stop, done)
	t.commit(0)
}

// Close stops the refresh loop without committing.
func (t *Timer) Close() {
	t.mu.Lock()
	if t.state == Running {
		t.elapsed = t.clock.Now().Sub(t.baseline)
		t.state = Stopped
	}
	stop, done := t.detachLocked()
	t.mu.Unlock()
	t.halt(stop, done)
}

func (t *Timer) detachLocked() (chan struct{}, chan struct{}) {
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	return stop, done
}

func (t *Timer) halt(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Timer) commit(sec int) {
	if t.onCommit != nil {
		t.onCommit(sec)
	}
}

func (t *Timer) loop(tk Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C():
			t.mu.Lock()
			if t.stop != stop {
				t.mu.Unlock()
				return
			}
			el := t.elapsedLocked()
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(el)
			}
		}
	}
}

// FormatClock renders whole seconds as MM:SS. Minutes grow past 99 as needed.
func FormatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
