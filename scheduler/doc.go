/*
Package scheduler defines the execution-context and timer contracts that the
semaphore and latch packages require from their host environment.

Implementations decide what an execution context actually is.  The Go()
scheduler simply spawns goroutines, while the eventloop package provides a
single-goroutine run loop whose contexts resume callers on the loop itself.
*/
package scheduler
