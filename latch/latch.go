package latch

import (
	"sync"
	"time"

	"github.com/rworsnop/vertx-concurrent/scheduler"
)

// Interface represents a countdown latch for callback-driven programs.  The
// latch opens when its count reaches zero, resuming every registered waiter
// exactly once on the context it arrived on.  No method ever blocks the
// calling goroutine.
type Interface interface {
	// CountDown decrements the count by one.  The count never goes below
	// zero; calling CountDown on an open latch does nothing.  The call
	// that takes the count from one to zero opens the latch, posting every
	// registered waiter's action to its own captured context.
	CountDown()

	// Await posts action to the caller's captured context once the latch
	// is open.  If the count is already zero the action is posted
	// immediately; otherwise it fires at the zero transition.
	Await(action func())

	// AwaitWait is Await with a deadline.  Exactly one of result(true) or
	// result(false) is eventually posted to the caller's captured context:
	// true if the latch was open already or opened before the timeout,
	// false if the timeout elapsed first.  It panics if timeout is
	// negative.
	AwaitWait(timeout time.Duration, result func(bool))

	// Count returns the current count.
	Count() int
}

// New constructs a latch that opens after count calls to CountDown, using
// the scheduler to capture caller contexts and arm timeouts.  New panics if
// sched is nil or count is negative.
func New(sched scheduler.Interface, count int) Interface {
	if sched == nil {
		panic("The scheduler cannot be nil")
	}

	if count < 0 {
		panic("The count cannot be negative")
	}

	return &latch{
		sched: sched,
		count: count,
	}
}

// latch is the internal Interface implementation
type latch struct {
	sched scheduler.Interface

	lock    sync.Mutex
	count   int
	waiters map[*waiter]struct{}
}

// waiter is a parked Await: the action to resume it with, the execution
// context it arrived on, and a pending timer when the Await had a deadline.
type waiter struct {
	action  func()
	context scheduler.Context
	timer   scheduler.Timer
}

// fire cancels any pending timeout and resumes the waiter on its own
// captured context.  The caller must already have removed the waiter from
// the shared set; removal is what decides the timeout race.
func (w *waiter) fire() {
	if w.timer != nil {
		w.timer.Cancel()
	}

	w.context.Post(w.action)
}

func (l *latch) CountDown() {
	l.lock.Lock()

	if l.count == 0 {
		l.lock.Unlock()
		return
	}

	l.count--
	if l.count > 0 {
		l.lock.Unlock()
		return
	}

	// The zero transition happens once.  Detach the whole set so that
	// racing timeout handlers observe their waiters as already gone.
	opened := l.waiters
	l.waiters = nil
	l.lock.Unlock()

	for w := range opened {
		w.fire()
	}
}

func (l *latch) Await(action func()) {
	context := l.sched.Current()

	l.lock.Lock()
	defer l.lock.Unlock()

	if l.count == 0 {
		context.Post(action)
		return
	}

	l.register(&waiter{action: action, context: context})
}

func (l *latch) AwaitWait(timeout time.Duration, result func(bool)) {
	if timeout < 0 {
		panic("The timeout cannot be negative")
	}

	context := l.sched.Current()

	l.lock.Lock()
	defer l.lock.Unlock()

	if l.count == 0 {
		context.Post(func() { result(true) })
		return
	}

	w := &waiter{
		action:  func() { result(true) },
		context: context,
	}

	// Armed while still holding the lock, so the timeout handler cannot
	// observe the set before the waiter is in it.
	w.timer = l.sched.NewTimer(timeout, func() { l.expire(w, result) })
	l.register(w)
}

// expire is the timeout half of the race.  Removal from the set decides the
// winner: a waiter that is already gone was resumed by the zero transition,
// and there is nothing left to do.
func (l *latch) expire(w *waiter, result func(bool)) {
	l.lock.Lock()
	_, registered := l.waiters[w]
	if registered {
		delete(l.waiters, w)
	}
	l.lock.Unlock()

	if registered {
		w.context.Post(func() { result(false) })
	}
}

func (l *latch) Count() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.count
}

func (l *latch) register(w *waiter) {
	if l.waiters == nil {
		l.waiters = make(map[*waiter]struct{})
	}

	l.waiters[w] = struct{}{}
}
