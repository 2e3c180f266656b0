//
//
package reading

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of Reading.Timestamp (ISO-8601, UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reading is one synthetic temperature measurement. It is immutable once created.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
	ID          int64     `json:"id"`
}

type wireReading struct {
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
	ID          int64   `json:"id"`
}

// MarshalJSON renders the timestamp in UTC with millisecond precision.
func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireReading{
		Temperature: r.Temperature,
		Timestamp:   r.Timestamp.UTC().Format(TimestampLayout),
		ID:          r.ID,
	})
}

// UnmarshalJSON accepts any RFC 3339 timestamp.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		return err
	}
	*r = Reading{Temperature: w.Temperature, Timestamp: ts, ID: w.ID}
	return nil
}
