// Package catalog maintains the process-wide mapping from request UUIDs to
// their constructors, and the serialization envelope that transports
// requests between processes.
//
// Catalogs are layered: each library (including dynamically loaded ones)
// registers its UUIDs under its own catalog id and unregisters them before
// unloading. Registrations for a UUID form a list with the newest first;
// entries are never overwritten in place, so a reloaded library can never
// cause a stale constructor to be called.
package catalog
