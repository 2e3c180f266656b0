package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/history"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

type memViewer struct {
	id   string
	done chan struct{}

	mu   sync.Mutex
	msgs []telemetry.Message
}

func newMemViewer(id string) *memViewer {
	return &memViewer{id: id, done: make(chan struct{})}
}

func (v *memViewer) ID() string            { return v.id }
func (v *memViewer) Transport() string     { return "mem" }
func (v *memViewer) Done() <-chan struct{} { return v.done }
func (v *memViewer) Close() error          { return nil }

func (v *memViewer) Send(_ context.Context, msg telemetry.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.msgs = append(v.msgs, msg)
	return nil
}

func (v *memViewer) received() []telemetry.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]telemetry.Message, len(v.msgs))
	copy(out, v.msgs)
	return out
}

type recordingMirror struct {
	mu     sync.Mutex
	ids    []int64
	closed bool
}

func (m *recordingMirror) Submit(r reading.Reading) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, r.ID)
	return true
}

func (m *recordingMirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type tickRecorder struct {
	mu       sync.Mutex
	ticks    int
	buffered int
}

func (r *tickRecorder) ObserveTick(_ float64, buffered int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	r.buffered = buffered
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// flatGenerator never moves off the seed; ids are consecutive from 1000.
func flatGenerator() *reading.Generator {
	return reading.NewGenerator(28.5,
		reading.WithClock(func() time.Time { return time.UnixMilli(1000) }),
		reading.WithVariation(func() float64 { return 0 }),
		reading.WithTrend(func(time.Time) float64 { return 0 }),
	)
}

func newTestStation(t *testing.T, deps Deps) *Station {
	t.Helper()
	cfg := config.Defaults()
	if deps.Generator == nil {
		deps.Generator = flatGenerator()
	}
	if deps.Store == nil {
		deps.Store = history.New(cfg.History.Capacity)
	}
	if deps.Hub == nil {
		tcfg := cfg.Telemetry
		tcfg.ViewerQueueSize = 1024
		deps.Hub = telemetry.NewHub(tcfg, nil, nil)
	}
	s := New(cfg.Sampling, cfg.History, deps)
	t.Cleanup(s.Stop)
	return s
}

func bootstrapOf(t *testing.T, msg telemetry.Message) telemetry.Bootstrap {
	t.Helper()
	if msg.Type != telemetry.TypeInitial {
		t.Fatalf("message type = %q, want %q", msg.Type, telemetry.TypeInitial)
	}
	b, ok := msg.Data.(telemetry.Bootstrap)
	if !ok {
		t.Fatalf("bootstrap data has type %T", msg.Data)
	}
	return b
}

func TestNewSeedsOneReading(t *testing.T) {
	s := newTestStation(t, Deps{})

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	latest, ok := s.Latest()
	if !ok || latest.Temperature != 28.5 {
		t.Errorf("Latest() = %+v, %v; want 28.5", latest, ok)
	}
}

func TestTickWithStubbedNoiseKeepsSeed(t *testing.T) {
	s := newTestStation(t, Deps{})

	r := s.Tick()
	if r.Temperature != 28.5 {
		t.Errorf("Tick() temperature = %v, want 28.5", r.Temperature)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestAttachBootstrapsTwentyMostRecent(t *testing.T) {
	s := newTestStation(t, Deps{})
	for i := 0; i < 24; i++ {
		s.Tick()
	}
	if s.Len() != 25 {
		t.Fatalf("Len() = %d, want 25", s.Len())
	}

	v := newMemViewer("v1")
	if err := s.Attach(v); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}
	waitFor(t, "bootstrap", func() bool { return len(v.received()) == 1 })

	b := bootstrapOf(t, v.received()[0])
	if len(b.History) != 20 {
		t.Fatalf("bootstrap history = %d readings, want 20", len(b.History))
	}
	all := s.History(0)
	if b.History[0].ID != all[5].ID || b.History[19].ID != all[24].ID {
		t.Errorf("bootstrap spans ids %d..%d, want %d..%d",
			b.History[0].ID, b.History[19].ID, all[5].ID, all[24].ID)
	}
	if b.Current != all[24].Temperature {
		t.Errorf("bootstrap current = %v, want %v", b.Current, all[24].Temperature)
	}
}

func TestAttachOnFreshStation(t *testing.T) {
	s := newTestStation(t, Deps{})

	v := newMemViewer("v1")
	if err := s.Attach(v); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}
	waitFor(t, "bootstrap", func() bool { return len(v.received()) == 1 })

	b := bootstrapOf(t, v.received()[0])
	if b.Current != 28.5 || len(b.History) != 1 {
		t.Errorf("bootstrap = %+v, want current 28.5 with the seed reading", b)
	}
}

func TestTickReachesAttachedViewersOnly(t *testing.T) {
	s := newTestStation(t, Deps{})

	a := newMemViewer("a")
	b := newMemViewer("b")
	if err := s.Attach(a); err != nil {
		t.Fatalf("Attach(a) failed: %v", err)
	}
	if err := s.Attach(b); err != nil {
		t.Fatalf("Attach(b) failed: %v", err)
	}
	if s.Viewers() != 2 {
		t.Fatalf("Viewers() = %d, want 2", s.Viewers())
	}

	r := s.Tick()
	waitFor(t, "push to both", func() bool {
		return len(a.received()) == 2 && len(b.received()) == 2
	})

	s.Detach("b")
	s.Tick()
	waitFor(t, "second push to a", func() bool { return len(a.received()) == 3 })
	time.Sleep(20 * time.Millisecond)

	if got := len(b.received()); got != 2 {
		t.Errorf("detached viewer received %d messages, want 2", got)
	}
	push := a.received()[1]
	if push.Type != telemetry.TypeTemperature || push.ID != r.ID {
		t.Errorf("push = %s/%d, want temperature/%d", push.Type, push.ID, r.ID)
	}
}

func TestBootstrapAndPushesNeverOverlapOrGap(t *testing.T) {
	s := newTestStation(t, Deps{})

	stop := make(chan struct{})
	ticking := make(chan struct{})
	go func() {
		defer close(ticking)
		for {
			select {
			case <-stop:
				return
			default:
				s.Tick()
				time.Sleep(50 * time.Microsecond)
			}
		}
	}()

	viewers := make([]*memViewer, 10)
	for i := range viewers {
		viewers[i] = newMemViewer(fmt.Sprintf("v%d", i))
		if err := s.Attach(viewers[i]); err != nil {
			t.Fatalf("Attach() failed: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(stop)
	<-ticking

	for _, v := range viewers {
		v := v
		waitFor(t, "bootstrap", func() bool { return len(v.received()) > 0 })
		msgs := v.received()
		b := bootstrapOf(t, msgs[0])
		if len(b.History) == 0 {
			t.Fatalf("viewer %s: empty bootstrap history", v.id)
		}

		// The first push follows the last bootstrapped reading exactly
		next := b.History[len(b.History)-1].ID + 1
		for _, msg := range msgs[1:] {
			if msg.ID != next {
				t.Errorf("viewer %s: got id %d, want %d", v.id, msg.ID, next)
				break
			}
			next++
		}
	}
}

func TestMirrorAndRecorderSeeEveryTick(t *testing.T) {
	mirror := &recordingMirror{}
	rec := &tickRecorder{}
	s := newTestStation(t, Deps{Mirror: mirror, Recorder: rec})

	s.Tick()
	s.Tick()

	if len(mirror.ids) != 2 {
		t.Errorf("mirror got %d readings, want 2", len(mirror.ids))
	}
	if rec.ticks != 2 || rec.buffered != 3 {
		t.Errorf("recorder = %d ticks, %d buffered; want 2, 3", rec.ticks, rec.buffered)
	}
}

func TestRunTicksUntilStop(t *testing.T) {
	cfg := config.Defaults()
	cfg.Sampling.TickInterval = 5 * time.Millisecond

	mirror := &recordingMirror{}
	hub := telemetry.NewHub(cfg.Telemetry, nil, nil)
	s := New(cfg.Sampling, cfg.History, Deps{
		Generator: flatGenerator(),
		Store:     history.New(cfg.History.Capacity),
		Hub:       hub,
		Mirror:    mirror,
	})

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(context.Background()) }()

	waitFor(t, "ticks", func() bool { return s.Len() >= 4 })
	s.Stop()

	if err := <-runErr; err != nil {
		t.Errorf("Run() = %v, want nil after Stop", err)
	}

	after := s.Len()
	time.Sleep(30 * time.Millisecond)
	if s.Len() != after {
		t.Errorf("store grew from %d to %d after Stop", after, s.Len())
	}
	if !mirror.closed {
		t.Error("Stop() did not close the mirror")
	}
	if err := s.Attach(newMemViewer("late")); !errors.Is(err, telemetry.ErrHubStopped) {
		t.Errorf("Attach() after Stop = %v, want ErrHubStopped", err)
	}
	if err := s.Run(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Run() after Stop = %v, want ErrStopped", err)
	}

	s.Stop()
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	s := newTestStation(t, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-runErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
