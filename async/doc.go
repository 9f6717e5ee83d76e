// Package async provides the asynchronous resolution engine: a tree of
// status-tracked nodes mirroring the request tree, cooperative cancellation
// propagation, and the worker pool resolutions run on.
//
// Cancellation is cooperative: requesting it marks a node and all its
// descendants Cancelling, and each transitions to Cancelled at its next
// suspension point. A running body is never forcibly stopped.
package async
