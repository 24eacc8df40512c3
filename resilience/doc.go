// Package resilience provides the fault-handling primitives used around
// external resources: a per-resource circuit breaker with a named registry,
// and a generic retry wrapper with bounded exponential backoff and jitter.
// The two are orthogonal: connection establishment is retried, ordinary
// invocations rely on the breaker alone so an overloaded resource is not
// delayed twice.
package resilience
