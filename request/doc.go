// Package request defines the polymorphic request model: nodes of a
// computation graph that resolve to dynamic values.
//
// Three concrete shapes exist. A Literal wraps a value. A FuncRequest
// applies a function to argument requests; its body is either plain (pure,
// arguments only) or a coroutine (additionally receives a context and may
// block). Requests are type-erased behind the Request interface, compose
// into trees, and carry a content-derived identity usable as a cache key.
//
// A request with a serializable UUID can be transported across processes;
// one with a disk-cacheable UUID may participate in full (secondary-storage)
// caching. A request with no UUID is identified by the host identity of its
// function and is usable for in-process memory caching only.
package request
