// Package future provides one-shot handles to in-flight asynchronous
// operations and ordered aggregation over collections of them.
//
// A Future is consumable exactly once: the second Await returns
// ErrAlreadyAwaited instead of blocking forever on a drained channel.
// JoinAll waits strictly in input order and fails fast on the first
// error, leaving later futures unconsumed.
package future
