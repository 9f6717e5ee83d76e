// Package resilience provides the retry, timeout, and bulkhead primitives
// used by the resolver and the rpc layer.
//
// Retries are driven by a per-request Retrier: on each failed attempt the
// resolver consults Retrier.HandleException, which either returns a delay to
// wait before the next attempt or re-raises the error. Delays wait on a
// caller-supplied sleeper so they observe cancellation.
package resilience
