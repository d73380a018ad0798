package semaphore

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rworsnop/vertx-concurrent/eventloop"
	"github.com/rworsnop/vertx-concurrent/scheduler/schedulertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleNew() {
	loop := eventloop.New()
	defer loop.Close()

	s := New(loop, 1)
	done := make(chan struct{})

	s.Acquire(func() {
		fmt.Println("first")
		s.Release()
	})

	s.Acquire(func() {
		fmt.Println("second")
		close(done)
	})

	<-done

	// Output:
	// first
	// second
}

func testNewNilScheduler(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, 1)
	})
}

func testNewNegativePermits(t *testing.T) {
	var (
		assert = assert.New(t)
		m      = schedulertest.NewManual()
		s      = New(m, -2)
	)

	// a negative initial count requires excess releases before any grant
	assert.Equal(-2, s.AvailablePermits())
	s.AcquireN(3, func() {})
	assert.Equal(1, s.QueueLength())

	s.ReleaseN(5)
	assert.Zero(s.QueueLength())
	assert.Zero(s.AvailablePermits())
	assert.Equal(1, m.Current().(*schedulertest.ManualContext).RunAll())
}

func TestNew(t *testing.T) {
	t.Run("NilScheduler", testNewNilScheduler)
	t.Run("NegativePermits", testNewNegativePermits)
}

func testAcquireImmediate(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 2)
		calls int
	)

	s.AcquireN(2, func() { calls++ })

	// the action is posted, never invoked inline
	assert.Zero(calls)
	assert.Equal(1, current.Pending())
	assert.Zero(s.AvailablePermits())
	assert.Zero(s.QueueLength())

	current.RunAll()
	assert.Equal(1, calls)
}

func testAcquireDeferred(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 1)
		calls int
	)

	s.AcquireN(2, func() { calls++ })
	assert.Zero(current.Pending())
	assert.Equal(1, s.QueueLength())
	assert.Equal(1, s.AvailablePermits())

	s.Release()
	assert.Zero(s.QueueLength())
	assert.Zero(s.AvailablePermits())

	current.RunAll()
	assert.Equal(1, calls)
}

func testAcquireZeroPermits(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s = New(m, 0)
	)

	s.AcquireN(0, func() {})
	assert.Equal(1, current.Pending())
	assert.Zero(s.QueueLength())
}

func testAcquireOwnContext(t *testing.T) {
	var (
		assert = assert.New(t)
		m      = schedulertest.NewManual()
		s      = New(m, 0)

		first  = m.Current().(*schedulertest.ManualContext)
		second = m.SetCurrent(new(schedulertest.ManualContext))
	)

	m.SetCurrent(first)
	s.Acquire(func() {})
	m.SetCurrent(second)
	s.Acquire(func() {})

	s.ReleaseN(2)

	// each action resumes on the context its caller arrived on
	assert.Equal(1, first.Pending())
	assert.Equal(1, second.Pending())
}

func testAcquireNegativePermits(t *testing.T) {
	s := New(schedulertest.NewManual(), 1)
	assert.Panics(t, func() {
		s.AcquireN(-1, func() {})
	})
}

func TestAcquire(t *testing.T) {
	t.Run("Immediate", testAcquireImmediate)
	t.Run("Deferred", testAcquireDeferred)
	t.Run("ZeroPermits", testAcquireZeroPermits)
	t.Run("OwnContext", testAcquireOwnContext)
	t.Run("NegativePermits", testAcquireNegativePermits)
}

func testTryAcquireSuccess(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s = New(m, 1)
	)

	assert.True(s.TryAcquire())
	assert.Zero(s.AvailablePermits())

	// synchronous: nothing is ever posted
	assert.Zero(current.Pending())
}

func testTryAcquireInsufficient(t *testing.T) {
	var (
		assert = assert.New(t)
		s      = New(schedulertest.NewManual(), 1)
	)

	assert.False(s.TryAcquireN(2))
	assert.Equal(1, s.AvailablePermits())

	// a failed TryAcquireN never parks a waiter
	assert.Zero(s.QueueLength())
}

func testTryAcquireBarging(t *testing.T) {
	var (
		assert = assert.New(t)
		m      = schedulertest.NewManual()
		s      = New(m, 0, Fair())
	)

	s.AcquireN(2, func() {})
	s.Release()

	// the queued waiter still needs one more permit, but TryAcquire
	// takes the available one anyway
	assert.True(s.TryAcquire())
	assert.Zero(s.AvailablePermits())
	assert.Equal(1, s.QueueLength())
}

func testTryAcquireNegativePermits(t *testing.T) {
	s := New(schedulertest.NewManual(), 1)
	assert.Panics(t, func() {
		s.TryAcquireN(-1)
	})
}

func TestTryAcquire(t *testing.T) {
	t.Run("Success", testTryAcquireSuccess)
	t.Run("Insufficient", testTryAcquireInsufficient)
	t.Run("Barging", testTryAcquireBarging)
	t.Run("NegativePermits", testTryAcquireNegativePermits)
}

func testTryAcquireWaitImmediate(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s       = New(m, 1)
		results []bool
	)

	s.TryAcquireWait(1, 5*time.Millisecond, func(acquired bool) {
		results = append(results, acquired)
	})

	assert.Zero(s.AvailablePermits())
	assert.Zero(s.QueueLength())

	// no timer is armed when the fast path succeeds
	assert.Empty(m.Timers())

	current.RunAll()
	assert.Equal([]bool{true}, results)
}

func testTryAcquireWaitReleaseWins(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s       = New(m, 1)
		results []bool
	)

	s.TryAcquireWait(2, 5*time.Millisecond, func(acquired bool) {
		results = append(results, acquired)
	})

	require.Equal(1, s.QueueLength())
	require.Len(m.Timers(), 1)

	timer := m.Timers()[0]
	assert.Equal(5*time.Millisecond, timer.Duration())

	s.Release()
	assert.Zero(s.QueueLength())
	assert.Zero(s.AvailablePermits())

	// satisfaction cancelled the pending timer
	assert.True(timer.Cancelled())

	current.RunAll()
	assert.Equal([]bool{true}, results)

	// a late timer firing is a no-op
	assert.False(timer.Fire())
	current.RunAll()
	assert.Equal([]bool{true}, results)
}

func testTryAcquireWaitTimerWins(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s       = New(m, 1)
		results []bool
	)

	s.TryAcquireWait(2, 5*time.Millisecond, func(acquired bool) {
		results = append(results, acquired)
	})

	require.Len(m.Timers(), 1)
	assert.True(m.Timers()[0].Fire())

	// the timeout removed the waiter
	assert.Zero(s.QueueLength())
	current.RunAll()
	assert.Equal([]bool{false}, results)

	// a later release finds no waiter to satisfy
	s.ReleaseN(5)
	assert.Equal(6, s.AvailablePermits())
	current.RunAll()
	assert.Equal([]bool{false}, results)
}

func testTryAcquireWaitInvalid(t *testing.T) {
	s := New(schedulertest.NewManual(), 1)

	t.Run("NegativePermits", func(t *testing.T) {
		assert.Panics(t, func() {
			s.TryAcquireWait(-1, time.Second, func(bool) {})
		})
	})

	t.Run("NegativeTimeout", func(t *testing.T) {
		assert.Panics(t, func() {
			s.TryAcquireWait(1, -time.Second, func(bool) {})
		})
	})
}

func TestTryAcquireWait(t *testing.T) {
	t.Run("Immediate", testTryAcquireWaitImmediate)
	t.Run("ReleaseWins", testTryAcquireWaitReleaseWins)
	t.Run("TimerWins", testTryAcquireWaitTimerWins)
	t.Run("Invalid", testTryAcquireWaitInvalid)
}

func testReleaseFairStrictOrder(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 1, Fair())
		order []string
	)

	s.AcquireN(100, func() { order = append(order, "large") })
	s.AcquireN(2, func() { order = append(order, "small") })

	s.ReleaseN(100)
	current.RunAll()

	// the earlier large request is served first; the later small one
	// stays parked behind it with only one permit left
	assert.Equal([]string{"large"}, order)
	assert.Equal(1, s.AvailablePermits())
	assert.Equal(1, s.QueueLength())

	s.Release()
	current.RunAll()
	assert.Equal([]string{"large", "small"}, order)
}

func testReleaseUnfairSmallestFirst(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 1)
		order []string
	)

	s.AcquireN(100, func() { order = append(order, "large") })
	s.AcquireN(2, func() { order = append(order, "small") })

	s.ReleaseN(100)
	current.RunAll()

	// the small request overtakes the earlier large one
	assert.Equal([]string{"small"}, order)
	assert.Equal(99, s.AvailablePermits())
	assert.Equal(1, s.QueueLength())

	s.Release()
	current.RunAll()
	assert.Equal([]string{"small", "large"}, order)
}

func testReleaseUnfairGreedy(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 0)
		calls int
	)

	for i := 0; i < 3; i++ {
		s.AcquireN(2, func() { calls++ })
	}
	s.AcquireN(50, func() { calls++ })

	// one release satisfies every small request it can afford
	s.ReleaseN(7)
	assert.Equal(3, current.RunAll())
	assert.Equal(3, calls)
	assert.Equal(1, s.AvailablePermits())
	assert.Equal(1, s.QueueLength())
}

func testReleaseUnfairStableTieBreak(t *testing.T) {
	var (
		assert  = assert.New(t)
		m       = schedulertest.NewManual()
		current = m.Current().(*schedulertest.ManualContext)

		s     = New(m, 0)
		order []int
	)

	for i := 0; i < 4; i++ {
		i := i
		s.AcquireN(3, func() { order = append(order, i) })
	}

	s.ReleaseN(12)
	current.RunAll()

	// equal-sized requests are served in arrival order
	assert.Equal([]int{0, 1, 2, 3}, order)
}

func testReleaseNegativePermits(t *testing.T) {
	s := New(schedulertest.NewManual(), 1)
	assert.Panics(t, func() {
		s.ReleaseN(-1)
	})
}

func TestRelease(t *testing.T) {
	t.Run("FairStrictOrder", testReleaseFairStrictOrder)
	t.Run("UnfairSmallestFirst", testReleaseUnfairSmallestFirst)
	t.Run("UnfairGreedy", testReleaseUnfairGreedy)
	t.Run("UnfairStableTieBreak", testReleaseUnfairStableTieBreak)
	t.Run("NegativePermits", testReleaseNegativePermits)
}

func testDrainPermitsAvailable(t *testing.T) {
	var (
		assert = assert.New(t)
		s      = New(schedulertest.NewManual(), 3)
	)

	assert.Equal(3, s.DrainPermits())
	assert.Zero(s.AvailablePermits())
	assert.False(s.TryAcquire())
	assert.Zero(s.DrainPermits())
}

func testDrainPermitsLeavesWaiters(t *testing.T) {
	var (
		assert = assert.New(t)
		m      = schedulertest.NewManual()
		s      = New(m, 1)
	)

	s.AcquireN(2, func() {})
	assert.Equal(1, s.DrainPermits())
	assert.Equal(1, s.QueueLength())
	assert.Zero(m.Current().(*schedulertest.ManualContext).Pending())
}

func TestDrainPermits(t *testing.T) {
	t.Run("Available", testDrainPermitsAvailable)
	t.Run("LeavesWaiters", testDrainPermitsLeavesWaiters)
}

func TestAccounting(t *testing.T) {
	for _, initial := range []int{0, 1, 10} {
		t.Run(strconv.Itoa(initial), func(t *testing.T) {
			var (
				assert  = assert.New(t)
				m       = schedulertest.NewManual()
				current = m.Current().(*schedulertest.ManualContext)

				s        = New(m, initial)
				released int
				granted  int
				grant    = func(permits int) func() {
					return func() { granted += permits }
				}
			)

			s.AcquireN(2, grant(2))
			s.AcquireN(7, grant(7))
			s.ReleaseN(3)
			released += 3
			s.AcquireN(1, grant(1))
			s.ReleaseN(9)
			released += 9
			current.RunAll()

			assert.Equal(initial+released-granted, s.AvailablePermits())
			assert.GreaterOrEqual(s.AvailablePermits(), 0)
		})
	}
}
