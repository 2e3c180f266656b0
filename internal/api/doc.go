// Package api implements the HTTP surface of the temperature logger.
//
// Live viewers attach over /ws (websocket) or /api/temperature/stream (SSE).
// The REST endpoints under /api are read-only views of the station: current
// temperature, history, CSV export and health. Errors use a JSON envelope
// carrying a correlation id.
package api
