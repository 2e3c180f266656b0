// Package sink mirrors generated readings to external systems.
//
// Mirrors are best-effort: readings are queued to a single background writer
// and dropped when the queue is full. A failing mirror is logged and counted,
// it never delays the sampling tick or viewer delivery.
package sink
