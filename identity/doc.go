// Package identity provides content-derived identities for request trees.
//
// Two fingerprint operations exist: a fast non-cryptographic hash used as
// the memory-cache key, and a SHA-256 digest used as the secondary-storage
// key. Hash equality alone never stands in for semantic equality; callers
// confirm with ID.Equals on collision.
package identity
