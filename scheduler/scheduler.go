package scheduler

import "time"

// Context represents a captured logical execution identity, e.g. an event loop
// goroutine.  A Context can resume a caller by running an action on that
// identity at some later point.
type Context interface {
	// Post schedules the given action to run exactly once on this context.
	// The action always runs asynchronously with respect to the caller:
	// Post never invokes it inline and never blocks.  Implementations must
	// tolerate being called with locks held by the caller.
	Post(action func())
}

// Timer is a pending one-shot timeout armed through a scheduler.
type Timer interface {
	// Cancel stops the timer.  Cancel is idempotent and is a safe no-op
	// when the timer has already fired or has already been cancelled.
	Cancel()
}

// Interface is the contract this library requires from its host environment.
// It captures "where" a caller logically runs so that callbacks can be
// resumed there, and it supplies one-shot timers for the timed operations.
type Interface interface {
	// Current captures the calling goroutine's execution context.  Actions
	// posted to the returned Context run on the same logical identity the
	// caller was using, even when the posting happens from elsewhere.
	Current() Context

	// NewTimer arms a one-shot timer that runs action after d has elapsed.
	// The action runs asynchronously with respect to this call; NewTimer
	// must never invoke it inline.
	NewTimer(d time.Duration, action func()) Timer
}
