// Package testdomain provides the "testing" domain: a context factory plus
// a catalog of small registered requests (arithmetic, failure, sleeping,
// canned HTTP) used by integration tests and by servers running with the
// testing flag.
package testdomain
