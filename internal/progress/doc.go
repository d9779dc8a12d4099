// Package progress provides the event primitives, non-blocking hub, and emitter
// interfaces the progress store uses to report mutations. The hub batches events
// on a background goroutine and fans them out to pluggable sinks such as
// Prometheus metrics or structured logs.
package progress
