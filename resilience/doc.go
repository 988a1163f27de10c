// Package resilience provides the retry and circuit-breaker patterns
// applied to upstream execution-node calls. Each node carries its own
// circuit breaker so a flapping node fails fast without affecting the
// rest of the pool.
package resilience
