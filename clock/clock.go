package clock

import "time"

// Interface represents the subset of the stdlib time package the event loop
// needs: the current time and one-shot timers.  Injecting it lets tests
// substitute a mock time source.
type Interface interface {
	Now() time.Time
	NewTimer(time.Duration) Timer
}

type systemClock struct{}

func (sc systemClock) Now() time.Time {
	return time.Now()
}

func (sc systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

// System returns a clock backed by the time package
func System() Interface {
	return systemClock{}
}
