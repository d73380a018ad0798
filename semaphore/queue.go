package semaphore

import (
	"container/heap"

	"github.com/rworsnop/vertx-concurrent/scheduler"
)

// waiter is a parked acquisition: the permits it still needs, the action to
// resume it with, and the execution context it arrived on.  Timed waiters
// also carry their pending timer.
type waiter struct {
	permits int
	action  func()
	context scheduler.Context
	timer   scheduler.Timer

	// seq is the arrival order, used by the unfair queue to break ties
	// between equal-sized requests.
	seq uint64

	// index is the waiter's position in the unfair queue's heap, or -1
	// once removed.
	index int
}

// satisfy cancels any pending timeout and resumes the waiter on its own
// captured context.  The caller must already have removed the waiter from
// the queue; removal is what decides the timeout race.
func (w *waiter) satisfy() {
	if w.timer != nil {
		w.timer.Cancel()
	}

	w.context.Post(w.action)
}

// pendingQueue holds parked waiters.  The implementation determines the
// fairness policy through its choice of head.
type pendingQueue interface {
	push(w *waiter)

	// peek returns the next waiter eligible for satisfaction, or nil when
	// the queue is empty.
	peek() *waiter

	// pop removes the waiter peek returned.
	pop()

	// remove takes out an arbitrary waiter, returning false if it was no
	// longer queued.
	remove(w *waiter) bool

	len() int
}

// fairQueue services waiters in strict FIFO order.
type fairQueue struct {
	waiters []*waiter
}

func (q *fairQueue) push(w *waiter) {
	q.waiters = append(q.waiters, w)
}

func (q *fairQueue) peek() *waiter {
	if len(q.waiters) == 0 {
		return nil
	}

	return q.waiters[0]
}

func (q *fairQueue) pop() {
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
}

func (q *fairQueue) remove(w *waiter) bool {
	for i, candidate := range q.waiters {
		if candidate == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}

	return false
}

func (q *fairQueue) len() int {
	return len(q.waiters)
}

// unfairQueue always exposes the smallest outstanding request as its head,
// breaking ties by arrival order.
type unfairQueue struct {
	waiters waiterHeap
}

func (q *unfairQueue) push(w *waiter) {
	heap.Push(&q.waiters, w)
}

func (q *unfairQueue) peek() *waiter {
	if len(q.waiters) == 0 {
		return nil
	}

	return q.waiters[0]
}

func (q *unfairQueue) pop() {
	heap.Pop(&q.waiters)
}

func (q *unfairQueue) remove(w *waiter) bool {
	if w.index < 0 || w.index >= len(q.waiters) || q.waiters[w.index] != w {
		return false
	}

	heap.Remove(&q.waiters, w.index)
	return true
}

func (q *unfairQueue) len() int {
	return len(q.waiters)
}

type waiterHeap []*waiter

func (h waiterHeap) Len() int {
	return len(h)
}

func (h waiterHeap) Less(i, j int) bool {
	if h[i].permits != h[j].permits {
		return h[i].permits < h[j].permits
	}

	return h[i].seq < h[j].seq
}

func (h waiterHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *waiterHeap) Push(x interface{}) {
	w := x.(*waiter)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *waiterHeap) Pop() interface{} {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[:n-1]
	return w
}
