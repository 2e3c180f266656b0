//
//
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

var (
	// ErrHubStopped is returned by Attach after Stop.
	ErrHubStopped = errors.New("telemetry hub stopped")
	// ErrDuplicateViewer is returned when a viewer id is already attached.
	ErrDuplicateViewer = errors.New("viewer already attached")
	// ErrViewerSlow marks a viewer dropped because its queue was full.
	ErrViewerSlow = errors.New("viewer queue full")
	// ErrViewerClosed marks a viewer whose transport went away.
	ErrViewerClosed = errors.New("viewer transport closed")
)

// Viewer is the transport abstraction: push-delivery to one named viewer plus
// notification when its transport disconnects.
type Viewer interface {
	ID() string
	Transport() string
	Send(ctx context.Context, msg Message) error
	Close() error
	Done() <-chan struct{}
}

// Observer receives membership and delivery events, e.g. for metrics.
type Observer interface {
	ViewerAttached(transport string, active int)
	ViewerDetached(active int)
	DeliveryFailed(transport string)
}

type nopObserver struct{}

func (nopObserver) ViewerAttached(string, int) {}
func (nopObserver) ViewerDetached(int)         {}
func (nopObserver) DeliveryFailed(string)      {}

// subscription is the hub-side state of one attached viewer.
type subscription struct {
	viewer Viewer
	queue  chan Message
	stop   chan struct{}
	once   sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.stop)
		_ = s.viewer.Close()
	})
}

// Hub fans messages out to every attached viewer.
//
// LOCK ORDERING: h.mu is the only hub lock and is never held while calling
// into a transport. Enqueueing under h.mu is non-blocking.
type Hub struct {
	mu       sync.Mutex
	viewers  map[string]*subscription
	stopped  bool
	wg       sync.WaitGroup
	log      *zap.Logger
	observer Observer

	queueSize    int
	writeTimeout time.Duration
}

// NewHub creates a telemetry hub. log and observer may be nil.
func NewHub(cfg config.TelemetryConfig, log *zap.Logger, observer Observer) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	queueSize := cfg.ViewerQueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	return &Hub{
		viewers:      make(map[string]*subscription),
		log:          log,
		observer:     observer,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
	}
}

// Attach registers v and queues bootstrap as its first message.
// No message published after Attach returns can reach v before bootstrap.
func (h *Hub) Attach(v Viewer, bootstrap Message) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrHubStopped
	}
	if _, exists := h.viewers[v.ID()]; exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateViewer, v.ID())
	}

	sub := &subscription{
		viewer: v,
		queue:  make(chan Message, h.queueSize+1),
		stop:   make(chan struct{}),
	}
	// Fresh queue, cannot block
	sub.queue <- bootstrap
	h.viewers[v.ID()] = sub
	active := len(h.viewers)

	h.wg.Add(1)
	h.mu.Unlock()

	go h.deliver(sub)

	h.observer.ViewerAttached(v.Transport(), active)
	h.log.Info("viewer attached",
		zap.String("viewer", v.ID()),
		zap.String("transport", v.Transport()),
		zap.Int("active", active))

	return nil
}

// Detach removes the viewer with the given id. Unknown ids are a no-op.
func (h *Hub) Detach(id string) {
	h.mu.Lock()
	sub, exists := h.viewers[id]
	h.mu.Unlock()

	if exists {
		h.remove(sub, nil)
	}
}

// Publish queues msg for every attached viewer and returns how many accepted it.
// It never blocks; viewers with a full queue are detached.
func (h *Hub) Publish(msg Message) int {
	var slow []*subscription
	delivered := 0

	h.mu.Lock()
	for _, sub := range h.viewers {
		select {
		case sub.queue <- msg:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.observer.DeliveryFailed(sub.viewer.Transport())
		h.remove(sub, ErrViewerSlow)
	}

	return delivered
}

// Count returns the number of attached viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Stop detaches every viewer and rejects further attaches.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	subs := make([]*subscription, 0, len(h.viewers))
	for _, sub := range h.viewers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub, ErrHubStopped)
	}

	// Wait for writer goroutines, bounded in case a transport write hangs
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(h.writeTimeout + time.Second):
		h.log.Warn("timed out waiting for viewer writers")
	}
}

// deliver drains one viewer's queue in order until it is detached.
func (h *Hub) deliver(sub *subscription) {
	defer h.wg.Done()

	v := sub.viewer
	for {
		select {
		case <-sub.stop:
			return
		case <-v.Done():
			h.remove(sub, ErrViewerClosed)
			return
		case msg := <-sub.queue:
			// Detach wins over a queued message
			select {
			case <-sub.stop:
				return
			default:
			}

			ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
			err := v.Send(ctx, msg)
			cancel()
			if err != nil {
				h.observer.DeliveryFailed(v.Transport())
				h.remove(sub, err)
				return
			}
		}
	}
}

// remove detaches sub if it is still the registered subscription for its id.
func (h *Hub) remove(sub *subscription, reason error) {
	id := sub.viewer.ID()

	h.mu.Lock()
	current, exists := h.viewers[id]
	if exists && current == sub {
		delete(h.viewers, id)
	}
	active := len(h.viewers)
	h.mu.Unlock()

	if !exists || current != sub {
		// Already detached; still make sure the transport is released
		sub.close()
		return
	}

	sub.close()
	h.observer.ViewerDetached(active)

	fields := []zap.Field{
		zap.String("viewer", id),
		zap.String("transport", sub.viewer.Transport()),
		zap.Int("active", active),
	}
	switch {
	case reason == nil:
		h.log.Info("viewer detached", fields...)
	case errors.Is(reason, ErrViewerClosed), errors.Is(reason, ErrHubStopped):
		h.log.Info("viewer detached", append(fields, zap.String("reason", reason.Error()))...)
	default:
		h.log.Warn("delivery failed, viewer dropped", append(fields, zap.Error(reason))...)
	}
}
