//
//
package station

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/history"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("station stopped")

// Generator produces the next reading.
type Generator interface {
	Generate() reading.Reading
}

// Broadcaster fans messages out to viewers.
type Broadcaster interface {
	Attach(v telemetry.Viewer, bootstrap telemetry.Message) error
	Detach(id string)
	Publish(msg telemetry.Message) int
	Count() int
	Stop()
}

// Mirror receives a copy of every reading.
type Mirror interface {
	Submit(r reading.Reading) bool
	Close() error
}

// Recorder observes ticks.
type Recorder interface {
	ObserveTick(temperature float64, buffered int)
}

// Deps are the collaborators of a Station. Generator, Store and Hub are
// required; the rest may be nil.
type Deps struct {
	Generator Generator
	Store     *history.Store
	Hub       Broadcaster
	Mirror    Mirror
	Recorder  Recorder
	Logger    *zap.Logger
}

// Station is the single owned instance of the live-data service.
type Station struct {
	mu  sync.Mutex // serialises tick and attach
	gen Generator
	st  *history.Store
	hub Broadcaster

	mirror   Mirror
	recorder Recorder
	log      *zap.Logger

	seed          float64
	tickInterval  time.Duration
	bootstrapSize int

	runMu   sync.Mutex // guards stopped against a late Run
	stopped bool
	stopCh  chan struct{}
	running sync.WaitGroup
}

// New creates a station and seeds the store with one reading so the first
// viewer never sees an empty history.
func New(cfg config.SamplingConfig, hcfg config.HistoryConfig, deps Deps) *Station {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Station{
		gen:           deps.Generator,
		st:            deps.Store,
		hub:           deps.Hub,
		mirror:        deps.Mirror,
		recorder:      deps.Recorder,
		log:           log,
		seed:          cfg.Seed,
		tickInterval:  cfg.TickInterval,
		bootstrapSize: hcfg.BootstrapSize,
		stopCh:        make(chan struct{}),
	}
	if s.tickInterval <= 0 {
		s.tickInterval = 5 * time.Second
	}
	if s.bootstrapSize <= 0 {
		s.bootstrapSize = 20
	}

	first := s.gen.Generate()
	s.st.Append(first)
	s.log.Info("station seeded",
		zap.Float64("temperature", first.Temperature),
		zap.Int64("id", first.ID))

	return s
}

// Tick generates one reading, records it and publishes it to every viewer.
func (s *Station) Tick() reading.Reading {
	s.mu.Lock()
	r := s.gen.Generate()
	s.st.Append(r)
	delivered := s.hub.Publish(telemetry.TemperatureMessage(r))
	s.mu.Unlock()

	if s.mirror != nil {
		s.mirror.Submit(r)
	}
	if s.recorder != nil {
		s.recorder.ObserveTick(r.Temperature, s.st.Len())
	}
	s.log.Debug("tick",
		zap.Float64("temperature", r.Temperature),
		zap.Int64("id", r.ID),
		zap.Int("viewers", delivered))

	return r
}

// Attach registers v and queues its bootstrap: the latest temperature and up
// to the bootstrap size most recent readings, oldest first.
func (s *Station) Attach(v telemetry.Viewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.seed
	if latest, ok := s.st.Latest(); ok {
		current = latest.Temperature
	}
	bootstrap := telemetry.InitialMessage(current, s.st.Snapshot(s.bootstrapSize))

	return s.hub.Attach(v, bootstrap)
}

// Detach removes a viewer. Unknown ids are ignored.
func (s *Station) Detach(id string) {
	s.hub.Detach(id)
}

// Viewers returns the number of attached viewers.
func (s *Station) Viewers() int {
	return s.hub.Count()
}

// Latest returns the most recent reading.
func (s *Station) Latest() (reading.Reading, bool) {
	return s.st.Latest()
}

// History returns up to limit most recent readings, oldest first.
func (s *Station) History(limit int) []reading.Reading {
	return s.st.Snapshot(limit)
}

// Len returns the number of buffered readings.
func (s *Station) Len() int {
	return s.st.Len()
}

// Capacity returns the history buffer capacity.
func (s *Station) Capacity() int {
	return s.st.Capacity()
}

// Run ticks every interval until ctx is done or Stop is called.
func (s *Station) Run(ctx context.Context) error {
	s.runMu.Lock()
	if s.stopped {
		s.runMu.Unlock()
		return ErrStopped
	}
	s.running.Add(1)
	s.runMu.Unlock()
	defer s.running.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.log.Info("station running", zap.Duration("interval", s.tickInterval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			// Stop may race the ticker; a stopped station never ticks
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			s.Tick()
		}
	}
}

// Stop halts the ticker, waits for an in-flight tick, then stops the hub and
// closes the mirror. It is idempotent.
func (s *Station) Stop() {
	s.runMu.Lock()
	if s.stopped {
		s.runMu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.runMu.Unlock()

	s.running.Wait()

	s.hub.Stop()
	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			s.log.Warn("failed to close sinks", zap.Error(err))
		}
	}
	s.log.Info("station stopped")
}
