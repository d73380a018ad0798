/*
Package eventloop provides a minimal single-goroutine run loop that serves as
the host environment for the semaphore and latch packages.

The loop serializes posted tasks and owns a one-shot timer service whose time
source is injectable for tests.  It exists for embedders that do not already
have an event loop of their own; anything that can capture a context and post
callbacks to it can serve the same role by implementing scheduler.Interface.
*/
package eventloop
