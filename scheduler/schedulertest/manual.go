package schedulertest

import (
	"sync"
	"time"

	"github.com/rworsnop/vertx-concurrent/scheduler"
)

// Manual is a deterministic scheduler for tests.  Posted actions accumulate
// on their contexts until the test runs them, and timers never fire on their
// own: the test fires each one explicitly.  This makes every ordering of a
// timeout-versus-satisfaction race a straight-line test case.
//
// The zero value is not usable.  Use NewManual.
type Manual struct {
	lock    sync.Mutex
	current *ManualContext
	timers  []*ManualTimer
}

func NewManual() *Manual {
	return &Manual{
		current: new(ManualContext),
	}
}

var _ scheduler.Interface = (*Manual)(nil)

func (m *Manual) Current() scheduler.Context {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.current
}

// SetCurrent changes the context that subsequent Current calls capture,
// letting a test simulate callers arriving from distinct contexts.
// It returns the context for convenience.
func (m *Manual) SetCurrent(c *ManualContext) *ManualContext {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = c
	return c
}

func (m *Manual) NewTimer(d time.Duration, action func()) scheduler.Timer {
	t := &ManualTimer{d: d, action: action}
	m.lock.Lock()
	m.timers = append(m.timers, t)
	m.lock.Unlock()
	return t
}

// Timers returns every timer armed through this scheduler so far, in
// arming order, fired and cancelled ones included.
func (m *Manual) Timers() []*ManualTimer {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]*ManualTimer{}, m.timers...)
}

// ManualContext records posted actions for later, explicit execution.
type ManualContext struct {
	lock   sync.Mutex
	posted []func()
}

var _ scheduler.Context = (*ManualContext)(nil)

func (c *ManualContext) Post(action func()) {
	c.lock.Lock()
	c.posted = append(c.posted, action)
	c.lock.Unlock()
}

// Pending returns the number of posted actions that have not yet been run.
func (c *ManualContext) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.posted)
}

// RunAll runs the posted actions in posting order and returns how many ran.
// Actions posted while RunAll is executing are run as well.
func (c *ManualContext) RunAll() (ran int) {
	for {
		c.lock.Lock()
		if len(c.posted) == 0 {
			c.lock.Unlock()
			return
		}

		action := c.posted[0]
		c.posted = c.posted[1:]
		c.lock.Unlock()

		action()
		ran++
	}
}

// ManualTimer is a one-shot timer that fires only when the test says so.
type ManualTimer struct {
	lock      sync.Mutex
	d         time.Duration
	action    func()
	fired     bool
	cancelled bool
}

var _ scheduler.Timer = (*ManualTimer)(nil)

func (t *ManualTimer) Duration() time.Duration {
	return t.d
}

// Fire runs the timer's action in the calling goroutine.  It returns false
// without running anything if the timer was already cancelled or fired.
func (t *ManualTimer) Fire() bool {
	t.lock.Lock()
	if t.fired || t.cancelled {
		t.lock.Unlock()
		return false
	}

	t.fired = true
	action := t.action
	t.lock.Unlock()

	action()
	return true
}

func (t *ManualTimer) Cancel() {
	t.lock.Lock()
	t.cancelled = true
	t.lock.Unlock()
}

// Cancelled reports whether Cancel has been called, regardless of whether
// the timer fired first.
func (t *ManualTimer) Cancelled() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.cancelled
}
