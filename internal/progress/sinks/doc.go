// Package sinks implements concrete progress consumers: Prometheus counters,
// structured logging, and per-language digests handed to a publisher. Each
// sink satisfies progress.Sink and is safe for repeated Consume/Close cycles.
package sinks
