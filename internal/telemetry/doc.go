// Package telemetry implements the broadcast hub that keeps viewers in sync
// with the reading stream.
//
// Every attached viewer owns a FIFO queue drained by its own writer goroutine.
// Attach places the bootstrap message at the head of that queue before the
// viewer becomes visible to Publish, so a viewer always sees the bootstrap
// first and then every published message in publish order. Publish never
// blocks: a viewer whose queue is full, whose transport write fails or whose
// transport closes is detached and never retried.
//
// Two transports are provided: WebSocketViewer (JSON text frames) and
// SSEViewer (text/event-stream).
package telemetry
