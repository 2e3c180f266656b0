//
//
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

// handleWebSocket handles GET /ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	v := telemetry.NewWebSocketViewer(conn, s.telemetry)
	if err := s.station.Attach(v); err != nil {
		s.log.Warn("websocket attach rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		_ = v.Close()
		return
	}
	s.log.Info("client connected",
		zap.String("viewer", v.ID()),
		zap.String("remote", r.RemoteAddr))

	go v.PingLoop()
	v.ReadPump()

	s.station.Detach(v.ID())
	s.log.Info("client disconnected", zap.String("viewer", v.ID()))
}

// handleStream handles GET /api/temperature/stream
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// The server write timeout would otherwise cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	v, err := telemetry.NewSSEViewer(w, r)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Streaming not supported")
		return
	}

	if err := s.station.Attach(v); err != nil {
		s.log.Warn("sse attach rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	s.log.Info("client connected",
		zap.String("viewer", v.ID()),
		zap.String("remote", r.RemoteAddr))

	v.Serve(s.telemetry.SSEHeartbeat)

	s.station.Detach(v.ID())
	s.log.Info("client disconnected", zap.String("viewer", v.ID()))
}
