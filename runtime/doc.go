// Package runtime provides the value passed through request resolution: a
// Context carrying the shared resources (memory cache, secondary storage,
// worker pool), the sync/async and local/remote mode flags, cancellation,
// and the introspection hooks.
//
// Contexts for a request family are produced by a domain: a named factory
// registered process-wide. A remote submission carries the domain name so
// the server can construct a matching context.
package runtime
