package semaphore

import (
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

// InstrumentOption represents a configurable option for instrumenting a semaphore
type InstrumentOption func(*instrumentedSemaphore)

// WithPermits establishes a gauge that tracks the available permit count.
// If a nil gauge is supplied, permit counts are discarded.
func WithPermits(g metrics.Gauge) InstrumentOption {
	return func(i *instrumentedSemaphore) {
		if g != nil {
			i.permits = g
		} else {
			i.permits = discard.NewGauge()
		}
	}
}

// WithQueueLength establishes a gauge that tracks the number of parked
// waiters.  If a nil gauge is supplied, queue lengths are discarded.
func WithQueueLength(g metrics.Gauge) InstrumentOption {
	return func(i *instrumentedSemaphore) {
		if g != nil {
			i.queue = g
		} else {
			i.queue = discard.NewGauge()
		}
	}
}

// WithTimeouts establishes a counter that tracks how many timed acquisitions
// expired before a release satisfied them.  If a nil counter is supplied,
// timeouts are discarded.
func WithTimeouts(c metrics.Counter) InstrumentOption {
	return func(i *instrumentedSemaphore) {
		if c != nil {
			i.timeouts = c
		} else {
			i.timeouts = discard.NewCounter()
		}
	}
}

// Instrument decorates an existing semaphore with a set of options.  The
// gauges are point-in-time samples taken after each operation and after each
// deferred callback, not a continuous view.
func Instrument(s Interface, o ...InstrumentOption) Interface {
	is := &instrumentedSemaphore{
		Interface: s,
		permits:   discard.NewGauge(),
		queue:     discard.NewGauge(),
		timeouts:  discard.NewCounter(),
	}

	for _, f := range o {
		f(is)
	}

	return is
}

type instrumentedSemaphore struct {
	Interface
	permits  metrics.Gauge
	queue    metrics.Gauge
	timeouts metrics.Counter
}

func (is *instrumentedSemaphore) sample() {
	is.permits.Set(float64(is.Interface.AvailablePermits()))
	is.queue.Set(float64(is.Interface.QueueLength()))
}

func (is *instrumentedSemaphore) Acquire(action func()) {
	is.AcquireN(1, action)
}

func (is *instrumentedSemaphore) AcquireN(permits int, action func()) {
	is.Interface.AcquireN(permits, func() {
		is.sample()
		action()
	})

	is.sample()
}

func (is *instrumentedSemaphore) TryAcquire() bool {
	return is.TryAcquireN(1)
}

func (is *instrumentedSemaphore) TryAcquireN(permits int) (acquired bool) {
	acquired = is.Interface.TryAcquireN(permits)
	is.sample()
	return
}

func (is *instrumentedSemaphore) TryAcquireWait(permits int, timeout time.Duration, result func(bool)) {
	is.Interface.TryAcquireWait(permits, timeout, func(acquired bool) {
		if !acquired {
			is.timeouts.Add(1.0)
		}

		is.sample()
		result(acquired)
	})

	is.sample()
}

func (is *instrumentedSemaphore) Release() {
	is.ReleaseN(1)
}

func (is *instrumentedSemaphore) ReleaseN(permits int) {
	is.Interface.ReleaseN(permits)
	is.sample()
}

func (is *instrumentedSemaphore) DrainPermits() (drained int) {
	drained = is.Interface.DrainPermits()
	is.sample()
	return
}
