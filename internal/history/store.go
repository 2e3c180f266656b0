// Package history implements the bounded, insertion-ordered reading buffer.
package history

import (
	"sync"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// DefaultCapacity is the number of readings retained when none is configured.
const DefaultCapacity = 100

// Store maintains a FIFO buffer of the most recent readings.
//
// Append is the sole mutator and always inserts at the tail, so entries stay
// in non-decreasing ID order. Readers always receive a copy.
type Store struct {
	mu       sync.RWMutex
	readings []reading.Reading
	capacity int
}

// New creates a store holding at most capacity readings.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		readings: make([]reading.Reading, 0, capacity),
		capacity: capacity,
	}
}

// Append adds r to the tail, evicting the oldest reading when full.
func (s *Store) Append(r reading.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.readings) < s.capacity {
		s.readings = append(s.readings, r)
		return
	}

	// Shift in place so the backing array never grows past capacity
	copy(s.readings, s.readings[1:])
	s.readings[len(s.readings)-1] = r
}

// Snapshot returns up to limit most recent readings, oldest first.
// A non-positive limit returns every buffered reading.
func (s *Store) Snapshot(limit int) []reading.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(s.readings) {
		start = len(s.readings) - limit
	}

	out := make([]reading.Reading, len(s.readings)-start)
	copy(out, s.readings[start:])
	return out
}

// Latest returns the most recently appended reading.
func (s *Store) Latest() (reading.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.readings) == 0 {
		return reading.Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// Len returns the number of buffered readings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Capacity returns the maximum number of readings retained.
func (s *Store) Capacity() int {
	return s.capacity
}
