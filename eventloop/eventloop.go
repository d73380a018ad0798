package eventloop

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/rworsnop/vertx-concurrent/clock"
	"github.com/rworsnop/vertx-concurrent/scheduler"
)

var (
	// ErrClosed is returned when an event loop has already been closed
	ErrClosed = errors.New("the event loop has been closed")
)

const (
	stateOpen int32 = iota
	stateClosed
)

// Interface represents a single-goroutine run loop.  Tasks posted to the
// loop execute serially, in submission order, on the loop goroutine.
//
// Interface is also a scheduler.Interface, so semaphores and latches built
// on a loop resume their callers on the loop goroutine, preserving
// single-threaded reasoning for code that lives there.
type Interface interface {
	scheduler.Interface

	// Post enqueues a task for the loop goroutine.  Post never blocks and
	// never runs the task inline; the queue is unbounded.  Tasks posted
	// after Close are silently dropped.
	Post(task func())

	// Close stops the loop goroutine.  Tasks still queued are dropped.
	// Close is idempotent; second and subsequent calls return ErrClosed.
	Close() error
}

// Option is a configuration option for an event loop
type Option func(*loop)

// WithClock sets the time source used for the loop's timers.  A nil clock
// means the system clock.
func WithClock(c clock.Interface) Option {
	return func(l *loop) {
		if c != nil {
			l.clock = c
		} else {
			l.clock = clock.System()
		}
	}
}

// WithLogger sets the logger used to report recovered task panics.  A nil
// logger discards them.
func WithLogger(logger log.Logger) Option {
	return func(l *loop) {
		if logger != nil {
			l.logger = logger
		} else {
			l.logger = log.NewNopLogger()
		}
	}
}

// WithPendingGauge establishes a gauge that tracks the depth of the loop's
// task queue.  If a nil gauge is supplied, queue depths are discarded.
func WithPendingGauge(g metrics.Gauge) Option {
	return func(l *loop) {
		if g != nil {
			l.pending = g
		} else {
			l.pending = discard.NewGauge()
		}
	}
}

// New constructs an event loop and starts its goroutine.  A task that
// panics is recovered and logged; the loop itself never dies from one.
func New(options ...Option) Interface {
	l := &loop{
		clock:   clock.System(),
		logger:  log.NewNopLogger(),
		pending: discard.NewGauge(),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}

	for _, o := range options {
		o(l)
	}

	go l.run()
	return l
}

type loop struct {
	clock   clock.Interface
	logger  log.Logger
	pending metrics.Gauge

	lock  sync.Mutex
	queue []func()

	wake  chan struct{}
	state int32
	quit  chan struct{}
}

func (l *loop) Post(task func()) {
	l.lock.Lock()
	l.queue = append(l.queue, task)
	l.pending.Set(float64(len(l.queue)))
	l.lock.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Current implements scheduler.Interface.  Every context captured through a
// loop is the loop itself: all callbacks resume on the loop goroutine, no
// matter which goroutine triggered them.
func (l *loop) Current() scheduler.Context {
	return l
}

func (l *loop) NewTimer(d time.Duration, action func()) scheduler.Timer {
	t := &loopTimer{
		timer:  l.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}

	go t.wait(l, action)
	return t
}

func (l *loop) Close() error {
	if atomic.CompareAndSwapInt32(&l.state, stateOpen, stateClosed) {
		close(l.quit)
		return nil
	}

	return ErrClosed
}

func (l *loop) run() {
	for {
		select {
		case <-l.quit:
			return

		case <-l.wake:
			l.drain()
		}
	}
}

func (l *loop) drain() {
	for {
		l.lock.Lock()
		if len(l.queue) == 0 {
			l.lock.Unlock()
			return
		}

		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.pending.Set(float64(len(l.queue)))
		l.lock.Unlock()

		l.invoke(task)
	}
}

func (l *loop) invoke(task func()) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(l.logger).Log("msg", "recovered task panic", "panic", r)
		}
	}()

	task()
}

// loopTimer posts its action to the loop when the underlying clock timer
// fires, unless cancelled first.
type loopTimer struct {
	timer  clock.Timer
	once   sync.Once
	cancel chan struct{}
}

func (t *loopTimer) wait(l *loop, action func()) {
	defer t.timer.Stop()

	select {
	case <-t.timer.C():
		l.Post(action)

	case <-t.cancel:

	case <-l.quit:
	}
}

func (t *loopTimer) Cancel() {
	t.once.Do(func() {
		close(t.cancel)
	})
}
