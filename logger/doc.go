// Package logger wraps zerolog with the conventions used across the
// proxy: a global logger configured at startup, component-tagged child
// loggers for the router, nodes, and server, and map-based structured
// fields.
package logger
