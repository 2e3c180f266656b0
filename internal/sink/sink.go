//
//
package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// Sink receives a copy of every reading.
type Sink interface {
	Name() string
	Write(ctx context.Context, r reading.Reading) error
	Close() error
}

// Observer is notified of failed or dropped writes.
type Observer interface {
	SinkFailed(sink string)
}

type nopObserver struct{}

func (nopObserver) SinkFailed(string) {}

// Fanout forwards readings to every sink from one background goroutine.
type Fanout struct {
	sinks    []Sink
	queue    chan reading.Reading
	timeout  time.Duration
	log      *zap.Logger
	observer Observer

	mu     sync.RWMutex // guards closed against sends on a closed queue
	closed bool
	wg     sync.WaitGroup
}

// NewFanout starts the background writer. log and observer may be nil.
func NewFanout(sinks []Sink, queueSize int, timeout time.Duration, log *zap.Logger, observer Observer) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	f := &Fanout{
		sinks:    sinks,
		queue:    make(chan reading.Reading, queueSize),
		timeout:  timeout,
		log:      log,
		observer: observer,
	}

	f.wg.Add(1)
	go f.run()

	return f
}

// Len returns the number of configured sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Submit queues r without blocking. It reports false when r was dropped.
func (f *Fanout) Submit(r reading.Reading) bool {
	if len(f.sinks) == 0 {
		return true
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return false
	}

	select {
	case f.queue <- r:
		return true
	default:
		for _, s := range f.sinks {
			f.observer.SinkFailed(s.Name())
		}
		f.log.Warn("sink queue full, reading dropped", zap.Int64("id", r.ID))
		return false
	}
}

// Close drains queued readings and closes every sink. It is idempotent.
func (f *Fanout) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	f.wg.Wait()

	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) run() {
	defer f.wg.Done()

	for r := range f.queue {
		for _, s := range f.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			err := s.Write(ctx, r)
			cancel()
			if err != nil {
				f.observer.SinkFailed(s.Name())
				f.log.Warn("sink write failed",
					zap.String("sink", s.Name()),
					zap.Int64("id", r.ID),
					zap.Error(err))
			}
		}
	}
}
