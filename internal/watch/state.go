//
//
package watch

import (
	"encoding/json"
	"fmt"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// Status is the coarse band a temperature falls in.
type Status string

const (
	StatusCool     Status = "Cool"
	StatusNormal   Status = "Normal"
	StatusWarm     Status = "Warm"
	StatusHot      Status = "Hot"
	StatusCritical Status = "Critical"
)

// StatusFor maps a temperature to its band.
func StatusFor(temp float64) Status {
	switch {
	case temp < 25:
		return StatusCool
	case temp < 30:
		return StatusNormal
	case temp < 35:
		return StatusWarm
	case temp < 40:
		return StatusHot
	default:
		return StatusCritical
	}
}

// Envelope is a server message with its payload still encoded.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type initialData struct {
	Current float64           `json:"current"`
	History []reading.Reading `json:"history"`
}

// State is the client-side view of the reading stream.
type State struct {
	Current   float64
	History   []reading.Reading // oldest first, at most window entries
	Alerts    []reading.Reading // newest first, at most alertKeep entries
	Connected bool
	Received  int

	window    int
	alertKeep int
	threshold float64
}

// NewState creates an empty state sized by cfg.
func NewState(cfg config.ClientConfig) *State {
	s := &State{
		window:    cfg.ChartWindow,
		alertKeep: cfg.AlertKeep,
		threshold: cfg.AlertThreshold,
	}
	if s.window <= 0 {
		s.window = 50
	}
	if s.alertKeep <= 0 {
		s.alertKeep = 5
	}
	return s
}

// Threshold returns the alert threshold.
func (s *State) Threshold() float64 {
	return s.threshold
}

// Apply folds one server message into the state. Unknown types are ignored.
func (s *State) Apply(env Envelope) error {
	switch env.Type {
	case "initial":
		var data initialData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return fmt.Errorf("decode initial: %w", err)
		}
		s.Current = data.Current
		s.History = trimTail(data.History, s.window)

	case "temperature":
		var r reading.Reading
		if err := json.Unmarshal(env.Data, &r); err != nil {
			return fmt.Errorf("decode temperature: %w", err)
		}
		s.Received++
		s.Current = r.Temperature
		s.History = trimTail(append(s.History, r), s.window)
		if r.Temperature > s.threshold {
			s.Alerts = append([]reading.Reading{r}, s.Alerts...)
			if len(s.Alerts) > s.alertKeep {
				s.Alerts = s.Alerts[:s.alertKeep]
			}
		}
	}
	return nil
}

// ClearAlerts drops every alert.
func (s *State) ClearAlerts() {
	s.Alerts = nil
}

// Status returns the band of the current temperature.
func (s *State) Status() Status {
	return StatusFor(s.Current)
}

func trimTail(rs []reading.Reading, n int) []reading.Reading {
	if len(rs) <= n {
		return rs
	}
	out := make([]reading.Reading, n)
	copy(out, rs[len(rs)-n:])
	return out
}
