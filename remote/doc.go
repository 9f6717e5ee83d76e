// Package remote defines the client-side interface to a remote resolver: a
// Proxy submits serialized requests, polls per-node status, fetches
// serialized results, and releases server-side state.
//
// Proxies are registered by name; a context created with a remote option
// names the proxy it dispatches through.
package remote
