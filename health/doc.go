// Package health provides health checks for a resolution server: memory
// cache pressure, secondary-storage reachability, an aggregator over all
// registered checks, and the HTTP probes the server binary exposes.
package health
