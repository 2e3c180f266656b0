// Package api defines ports (interfaces) for API server dependencies.
package api

import (
	"net/http"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/metrics"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/station"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

// StationPort is what the API needs from the live-data service.
type StationPort interface {
	Attach(v telemetry.Viewer) error
	Detach(id string)
	Viewers() int
	Latest() (reading.Reading, bool)
	History(limit int) []reading.Reading
	Len() int
	Capacity() int
}

// MetricsPort records request counts and serves the exposition endpoint.
type MetricsPort interface {
	HTTPRequest(route string, code int)
	Handler() http.Handler
}

// Compile-time assertions that concrete types implement the ports.
var (
	_ StationPort = (*station.Station)(nil)
	_ MetricsPort = (*metrics.Metrics)(nil)
)
