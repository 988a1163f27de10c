// Package observability wires OpenTelemetry metrics and tracing for the
// proxy: request and upstream latency, fcU consensus outcomes, and node
// pool health, exported over OTLP HTTP. Disabled unless configured; all
// recording helpers are nil-safe so call sites stay unconditional.
package observability
