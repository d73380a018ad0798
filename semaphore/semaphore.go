package semaphore

import (
	"sync"
	"time"

	"github.com/rworsnop/vertx-concurrent/scheduler"
)

// Interface represents a counting semaphore for callback-driven programs.
// No method ever blocks the calling goroutine: a request that cannot be
// satisfied immediately is parked as a waiter, and its action is posted to
// the execution context the caller arrived on once a later release frees
// enough permits.
type Interface interface {
	// Acquire is syntactic sugar for AcquireN(1, action).
	Acquire(action func())

	// AcquireN acquires the given number of permits.  If enough are
	// available they are deducted and action is posted to the caller's
	// captured context.  Otherwise the request is parked until released
	// permits satisfy it; there is no way to abandon a parked AcquireN.
	// AcquireN panics if permits is negative.
	AcquireN(permits int, action func())

	// TryAcquire is syntactic sugar for TryAcquireN(1).
	TryAcquire() bool

	// TryAcquireN deducts the given number of permits and returns true if
	// they were all available at call time.  Otherwise it returns false
	// without parking a request and without scheduling anything.
	//
	// TryAcquireN barges: it can take permits ahead of parked waiters,
	// even when the semaphore is fair.  It panics if permits is negative.
	TryAcquireN(permits int) bool

	// TryAcquireWait attempts to acquire the given number of permits
	// within the timeout.  Exactly one of result(true) or result(false) is
	// eventually posted to the caller's captured context: true if the
	// permits were available immediately or a release supplied them before
	// the timeout, false if the timeout elapsed first.  It panics if
	// permits or timeout is negative.
	TryAcquireWait(permits int, timeout time.Duration, result func(bool))

	// Release is syntactic sugar for ReleaseN(1).
	Release()

	// ReleaseN returns the given number of permits and then satisfies as
	// many parked waiters as the fairness policy allows, posting each
	// one's action to its own captured context.  No ceiling is enforced:
	// releasing more than was ever acquired simply raises the available
	// count.  ReleaseN panics if permits is negative.
	ReleaseN(permits int)

	// DrainPermits atomically sets the available permits to zero and
	// returns the prior value.  Parked waiters are left untouched.
	DrainPermits() int

	// AvailablePermits returns the current number of available permits.
	AvailablePermits() int

	// QueueLength returns the number of parked waiters.
	QueueLength() int
}

// Option is a configuration option for a semaphore
type Option func(*semaphore)

// Fair switches the semaphore to strict arrival-order service.  A fair
// semaphore satisfies waiters in FIFO order, so an unsatisfied request at the
// head of the queue holds back every request behind it, no matter how small.
//
// The default, unfair policy always satisfies the smallest outstanding
// request first, with arrival order breaking ties.
func Fair() Option {
	return func(s *semaphore) {
		s.pending = new(fairQueue)
	}
}

// New constructs a semaphore with the given number of initial permits, using
// the scheduler to capture caller contexts and arm timeouts.  The initial
// count may be negative, requiring that many excess releases before any
// request can succeed.  New panics if sched is nil.
func New(sched scheduler.Interface, permits int, options ...Option) Interface {
	if sched == nil {
		panic("The scheduler cannot be nil")
	}

	s := &semaphore{
		sched:   sched,
		permits: permits,
		pending: new(unfairQueue),
	}

	for _, o := range options {
		o(s)
	}

	return s
}

// semaphore is the internal Interface implementation
type semaphore struct {
	sched scheduler.Interface

	lock    sync.Mutex
	permits int
	seq     uint64
	pending pendingQueue
}

func (s *semaphore) Acquire(action func()) {
	s.AcquireN(1, action)
}

func (s *semaphore) AcquireN(permits int, action func()) {
	checkPermits(permits)
	context := s.sched.Current()

	s.lock.Lock()
	defer s.lock.Unlock()

	if permits <= s.permits {
		s.permits -= permits
		context.Post(action)
		return
	}

	s.enqueue(&waiter{permits: permits, action: action, context: context})
}

func (s *semaphore) TryAcquire() bool {
	return s.TryAcquireN(1)
}

func (s *semaphore) TryAcquireN(permits int) bool {
	checkPermits(permits)

	s.lock.Lock()
	defer s.lock.Unlock()

	if permits <= s.permits {
		s.permits -= permits
		return true
	}

	return false
}

func (s *semaphore) TryAcquireWait(permits int, timeout time.Duration, result func(bool)) {
	checkPermits(permits)
	checkTimeout(timeout)
	context := s.sched.Current()

	s.lock.Lock()
	defer s.lock.Unlock()

	if permits <= s.permits {
		s.permits -= permits
		context.Post(func() { result(true) })
		return
	}

	w := &waiter{
		permits: permits,
		action:  func() { result(true) },
		context: context,
	}

	// Armed while still holding the lock, so the timeout handler cannot
	// observe the queue before the waiter is in it.
	w.timer = s.sched.NewTimer(timeout, func() { s.expire(w, result) })
	s.enqueue(w)
}

// expire is the timeout half of the race.  Removal from the queue decides the
// winner: a waiter that is already gone was satisfied by a release that beat
// the timer, and there is nothing left to do.
func (s *semaphore) expire(w *waiter, result func(bool)) {
	s.lock.Lock()
	removed := s.pending.remove(w)
	s.lock.Unlock()

	if removed {
		w.context.Post(func() { result(false) })
	}
}

func (s *semaphore) Release() {
	s.ReleaseN(1)
}

func (s *semaphore) ReleaseN(permits int) {
	checkPermits(permits)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.permits += permits
	for head := s.pending.peek(); head != nil && head.permits <= s.permits; head = s.pending.peek() {
		s.permits -= head.permits
		s.pending.pop()
		head.satisfy()
	}
}

func (s *semaphore) DrainPermits() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	drained := s.permits
	s.permits = 0
	return drained
}

func (s *semaphore) AvailablePermits() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.permits
}

func (s *semaphore) QueueLength() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pending.len()
}

func (s *semaphore) enqueue(w *waiter) {
	s.seq++
	w.seq = s.seq
	s.pending.push(w)
}

func checkPermits(permits int) {
	if permits < 0 {
		panic("The permits value cannot be negative")
	}
}

func checkTimeout(timeout time.Duration) {
	if timeout < 0 {
		panic("The timeout cannot be negative")
	}
}
