//
//
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// Router registers every endpoint on a new router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	// Live streams are long-lived and not throttled
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/api/temperature/stream", s.handleStream).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.instrument, s.throttle)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/temperature", s.handleCurrent).Methods(http.MethodGet)
	api.HandleFunc("/temperature/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/temperature/export", s.handleExport).Methods(http.MethodGet)
	api.NotFoundHandler = http.HandlerFunc(handleNotFound)

	if s.server.IsProduction() {
		r.PathPrefix("/").Handler(newSPAHandler(s.server.StaticDir)).Methods(http.MethodGet, http.MethodHead)
	}

	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	return r
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":           "ok",
		"uptime":           time.Since(s.startTime).Seconds(),
		"readings":         s.station.Len(),
		"websocketClients": s.station.Viewers(),
		"environment":      s.server.Environment,
		"port":             s.server.Port,
	}
	writeJSON(w, http.StatusOK, health)
}

// handleCurrent handles GET /api/temperature
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.station.Latest()
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, "No reading available yet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current":   latest.Temperature,
		"timestamp": time.Now().UTC().Format(reading.TimestampLayout),
	})
}

// handleHistory handles GET /api/temperature/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, s.station.History(limit))
}

// historyLimit parses the limit query parameter. Missing, malformed or
// non-positive values fall back to the default; larger values are capped
// at the buffer capacity.
func (s *Server) historyLimit(raw string) int {
	limit := s.history.DefaultLimit
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		limit = n
	}
	if capacity := s.station.Capacity(); limit > capacity {
		limit = capacity
	}
	return limit
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Only GET method is allowed")
}
