// Package introspect provides tasklets: tokens tracking one logical async
// activity each, with a per-tasklet event log.
//
// Introspection is a first-class hook on the resolution context, not a
// cross-cutting wrapper: a request marked introspective gets a tasklet, and
// its awaits are bracketed with before/after events. With capture disabled
// no tasklets are created and every operation is a nil-receiver no-op, so
// resolution pays nothing.
package introspect
