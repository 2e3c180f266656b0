//
//
package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

// TransportWebSocket labels viewers attached over a websocket.
const TransportWebSocket = "websocket"

// NewUpgrader returns an upgrader accepting any origin, matching the
// permissive CORS policy of the REST endpoints.
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// WebSocketViewer delivers messages as JSON text frames.
type WebSocketViewer struct {
	id   string
	conn *websocket.Conn

	writeTimeout   time.Duration
	pingInterval   time.Duration
	maxMessageSize int64

	writeMu   sync.Mutex
	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

// NewWebSocketViewer wraps an upgraded connection.
func NewWebSocketViewer(conn *websocket.Conn, cfg config.TelemetryConfig) *WebSocketViewer {
	v := &WebSocketViewer{
		id:             "ws-" + uuid.NewString(),
		conn:           conn,
		writeTimeout:   cfg.WriteTimeout,
		pingInterval:   cfg.WSPingInterval,
		maxMessageSize: cfg.WSMaxMessageBytes,
		done:           make(chan struct{}),
	}
	if v.writeTimeout <= 0 {
		v.writeTimeout = 10 * time.Second
	}
	if v.pingInterval <= 0 {
		v.pingInterval = 30 * time.Second
	}
	if v.maxMessageSize <= 0 {
		v.maxMessageSize = 4096
	}
	return v
}

// ID returns the viewer id.
func (v *WebSocketViewer) ID() string { return v.id }

// Transport returns "websocket".
func (v *WebSocketViewer) Transport() string { return TransportWebSocket }

// Done is closed once the connection is gone.
func (v *WebSocketViewer) Done() <-chan struct{} { return v.done }

// Send writes msg as a single JSON text frame.
func (v *WebSocketViewer) Send(ctx context.Context, msg Message) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	deadline := time.Now().Add(v.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := v.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return v.conn.WriteJSON(msg)
}

// Close sends a normal closure frame and closes the connection.
func (v *WebSocketViewer) Close() error {
	var err error
	v.closeOnce.Do(func() {
		v.writeMu.Lock()
		_ = v.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		v.writeMu.Unlock()
		err = v.conn.Close()
		v.markDone()
	})
	return err
}

// ReadPump consumes inbound frames until the peer disconnects. Viewers are
// receive-only, so payloads are discarded; reading is what surfaces close
// frames and pong replies. It blocks and must run on the handler goroutine.
func (v *WebSocketViewer) ReadPump() {
	defer v.markDone()

	pongWait := v.pingInterval * 2
	v.conn.SetReadLimit(v.maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// PingLoop sends a ping every ping interval until the viewer is done.
func (v *WebSocketViewer) PingLoop() {
	ticker := time.NewTicker(v.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.done:
			return
		case <-ticker.C:
			err := v.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(v.writeTimeout))
			if err != nil {
				v.markDone()
				return
			}
		}
	}
}

func (v *WebSocketViewer) markDone() {
	v.doneOnce.Do(func() { close(v.done) })
}
