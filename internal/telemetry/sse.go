//
//
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransportSSE labels viewers attached over Server-Sent Events.
const TransportSSE = "sse"

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported by response writer")

// SSEViewer delivers messages as text/event-stream events.
type SSEViewer struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	reqDone <-chan struct{}

	mu        sync.Mutex // protects w
	closed    chan struct{}
	closeOnce sync.Once
}

// NewSSEViewer prepares w for streaming and writes the SSE headers.
func NewSSEViewer(w http.ResponseWriter, r *http.Request) (*SSEViewer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEViewer{
		id:      "sse-" + uuid.NewString(),
		w:       w,
		flusher: flusher,
		reqDone: r.Context().Done(),
		closed:  make(chan struct{}),
	}, nil
}

// ID returns the viewer id.
func (v *SSEViewer) ID() string { return v.id }

// Transport returns "sse".
func (v *SSEViewer) Transport() string { return TransportSSE }

// Done is closed when the client goes away.
func (v *SSEViewer) Done() <-chan struct{} { return v.reqDone }

// Send writes one event and flushes it.
func (v *SSEViewer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	select {
	case <-v.closed:
		return ErrViewerClosed
	default:
	}

	// A stalled client must not hold the writer past the caller's deadline
	deadline, _ := ctx.Deadline()
	if err := http.NewResponseController(v.w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if msg.ID > 0 {
		if _, err := fmt.Fprintf(v.w, "id: %d\n", msg.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(v.w, "event: %s\n", msg.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(v.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	v.flusher.Flush()
	return nil
}

// Close ends the stream and waits for an in-flight Send. No write reaches
// the ResponseWriter once Close has returned.
func (v *SSEViewer) Close() error {
	v.closeOnce.Do(func() { close(v.closed) })
	v.mu.Lock()
	defer v.mu.Unlock()
	return nil
}

// Serve blocks until the viewer is closed or the client disconnects,
// emitting a heartbeat event every interval. It returns only after any
// in-flight Send has finished, so the handler may return right after it.
func (v *SSEViewer) Serve(heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	defer v.Close()

	for {
		select {
		case <-v.closed:
			return
		case <-v.reqDone:
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), heartbeat)
			err := v.Send(ctx, HeartbeatMessage(now))
			cancel()
			if err != nil {
				return
			}
		}
	}
}
