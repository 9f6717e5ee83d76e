// Package resolver dispatches request resolution across three independent
// axes: remote vs. local, sync vs. async, cached vs. uncached.
//
// Axes not pinned at the call site follow the context. Retryable requests
// are wrapped in a retry loop whose delays run on the context's cancellable
// scheduler. Subrequests of one parent resolve concurrently, and identical
// subrequests resolved concurrently anywhere in the process share one
// computation through the memory cache.
package resolver
