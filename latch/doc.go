/*
Package latch provides a countdown latch for single-threaded, callback-driven
programs where no caller may block its execution thread.

Awaiting never suspends a goroutine: a waiter is a data-structure entry, and
the countdown that reaches zero posts every registered waiter's callback to
the execution context it was registered on.  Reaching zero is permanent.
*/
package latch
