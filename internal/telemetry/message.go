//
//
package telemetry

import (
	"time"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// Message types on the wire.
const (
	TypeInitial     = "initial"
	TypeTemperature = "temperature"
	TypeHeartbeat   = "heartbeat"
)

// Message is the envelope delivered to viewers.
type Message struct {
	// ID is used as the SSE event id; it is not serialised.
	ID   int64       `json:"-"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Bootstrap is the payload of the initial message.
type Bootstrap struct {
	Current float64           `json:"current"`
	History []reading.Reading `json:"history"`
}

// InitialMessage builds the one-time bootstrap sent on attach.
func InitialMessage(current float64, history []reading.Reading) Message {
	if history == nil {
		history = []reading.Reading{}
	}
	return Message{
		Type: TypeInitial,
		Data: Bootstrap{Current: current, History: history},
	}
}

// TemperatureMessage wraps a freshly generated reading.
func TemperatureMessage(r reading.Reading) Message {
	return Message{
		ID:   r.ID,
		Type: TypeTemperature,
		Data: r,
	}
}

// HeartbeatMessage is a keepalive for transports without native pings.
func HeartbeatMessage(now time.Time) Message {
	return Message{
		Type: TypeHeartbeat,
		Data: map[string]string{"ts": now.UTC().Format(time.RFC3339)},
	}
}
