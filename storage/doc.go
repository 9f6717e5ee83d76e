// Package storage defines the secondary-storage tier: a pluggable
// key->blob store keyed by a request's cryptographic digest, and the
// gateway that reads and writes fully-cached results through it.
//
// Concrete stores are plugins registered by name and selected with the
// disk_cache/factory configuration key. A read returning an empty blob
// means a miss; write failures are logged and treated as a best-effort
// loss, never as a resolution failure.
package storage
