package scheduler

import "time"

// Go returns a scheduler backed directly by the go runtime.  Every posted
// action runs on a fresh goroutine, and timers are time.AfterFunc timers.
//
// This scheduler preserves the exactly-once, always-asynchronous delivery
// guarantees of Interface, but it provides no thread affinity: callers that
// need callbacks resumed on a specific goroutine should use an event loop
// implementation instead.
func Go() Interface {
	return goScheduler{}
}

type goScheduler struct{}

func (gs goScheduler) Current() Context {
	return goContext{}
}

func (gs goScheduler) NewTimer(d time.Duration, action func()) Timer {
	return goTimer{time.AfterFunc(d, action)}
}

type goContext struct{}

func (gc goContext) Post(action func()) {
	go action()
}

type goTimer struct {
	t *time.Timer
}

func (gt goTimer) Cancel() {
	// time.Timer.Stop is already safe to call after firing
	gt.t.Stop()
}
