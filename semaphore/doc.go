/*
Package semaphore provides a counting semaphore for single-threaded,
callback-driven programs where no caller may block its execution thread.

Acquisition never suspends a goroutine.  A request that cannot be satisfied
immediately becomes a queue entry, and when a later release frees enough
permits the request's callback is posted to the execution context it was
made on, preserving the caller's single-threaded reasoning.  Fairness is
selectable at construction: strict arrival order, or smallest-request-first.
*/
package semaphore
