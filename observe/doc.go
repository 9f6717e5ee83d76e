// Package observe provides the telemetry surface for the runtime: a
// structured logger, an OpenTelemetry tracer for resolution spans, and
// meters for cache activity.
//
// Components never reach into a global logger; they receive an Observer (or
// just a Logger) through their configuration. With everything disabled, all
// primitives are noops and resolution runs at zero observability cost.
package observe
