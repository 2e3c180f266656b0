package api

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/history"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/metrics"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/station"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

type testEnv struct {
	cfg     *config.Config
	station *station.Station
	metrics *metrics.Metrics
	server  *httptest.Server
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}

	m := metrics.New()
	gen := reading.NewGenerator(cfg.Sampling.Seed,
		reading.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
		reading.WithVariation(func() float64 { return 0 }),
		reading.WithTrend(func(time.Time) float64 { return 0 }),
	)
	st := station.New(cfg.Sampling, cfg.History, station.Deps{
		Generator: gen,
		Store:     history.New(cfg.History.Capacity),
		Hub:       telemetry.NewHub(cfg.Telemetry, nil, m),
		Recorder:  m,
	})

	srv := httptest.NewServer(NewServer(cfg, st, m, nil, nil).Handler())
	t.Cleanup(func() {
		st.Stop()
		srv.Close()
	})

	return &testEnv{cfg: cfg, station: st, metrics: m, server: srv}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	env.station.Tick()

	resp := env.get(t, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status           string  `json:"status"`
		Uptime           float64 `json:"uptime"`
		Readings         int     `json:"readings"`
		WebsocketClients int     `json:"websocketClients"`
		Environment      string  `json:"environment"`
		Port             int     `json:"port"`
	}
	decode(t, resp, &body)

	if body.Status != "ok" || body.Readings != 2 || body.WebsocketClients != 0 {
		t.Errorf("health = %+v", body)
	}
	if body.Environment != "development" || body.Port != 3001 {
		t.Errorf("environment/port = %s/%d", body.Environment, body.Port)
	}
}

func TestCurrentTemperature(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/temperature")
	var body struct {
		Current   float64 `json:"current"`
		Timestamp string  `json:"timestamp"`
	}
	decode(t, resp, &body)

	if body.Current != 28.5 {
		t.Errorf("current = %v, want 28.5", body.Current)
	}
	if _, err := time.Parse(time.RFC3339Nano, body.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", body.Timestamp, err)
	}
}

func TestHistoryLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 59; i++ {
		env.station.Tick()
	}
	all := env.station.History(0)
	if len(all) != 60 {
		t.Fatalf("buffered = %d, want 60", len(all))
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 50},
		{"?limit=10", 10},
		{"?limit=abc", 50},
		{"?limit=0", 50},
		{"?limit=-3", 50},
		{"?limit=500", 60},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []reading.Reading
			decode(t, env.get(t, "/api/temperature/history"+tt.query), &got)

			if len(got) != tt.want {
				t.Fatalf("got %d readings, want %d", len(got), tt.want)
			}
			if got[len(got)-1].ID != all[59].ID {
				t.Errorf("last id = %d, want most recent %d", got[len(got)-1].ID, all[59].ID)
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	env.station.Tick()
	env.station.Tick()

	resp := env.get(t, "/api/temperature/export")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "attachment; filename=temperature-log.csv" {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), body)
	}
	if lines[0] != "Timestamp,Temperature (°C)" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2026-03-01T12:00:00.000Z,28.5" {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestEncodeCSVWholeNumbers(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 30, 0, 0, time.FixedZone("CET", 3600))
	body, err := encodeCSV([]reading.Reading{{Temperature: 30, Timestamp: ts, ID: 1}})
	if err != nil {
		t.Fatalf("encodeCSV() failed: %v", err)
	}

	want := "Timestamp,Temperature (°C)\n2026-03-01T07:30:00.000Z,30\n"
	if string(body) != want {
		t.Errorf("encodeCSV() = %q, want %q", body, want)
	}
}

func TestErrorEnvelope(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown api path", http.MethodGet, "/api/unknown", http.StatusNotFound, CodeNotFound},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, CodeNotFound},
		{"wrong method", http.MethodPost, "/api/health", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, env.server.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}

			var body Response
			decode(t, resp, &body)
			if body.Result != "error" || body.Code != tt.code {
				t.Errorf("envelope = %+v", body)
			}
			if _, err := uuid.Parse(body.CorrelationID); err != nil {
				t.Errorf("correlationId %q is not a uuid", body.CorrelationID)
			}
		})
	}
}

func TestCORSReflectsOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/health", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Errorf("Allow-Origin = %q, want reflected origin", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.RateLimit.RequestsPerSecond = 0.001
		cfg.Server.RateLimit.Burst = 2
	})

	for i := 0; i < 2; i++ {
		if resp := env.get(t, "/api/health"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, resp.StatusCode)
		}
	}

	resp := env.get(t, "/api/health")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	var body Response
	decode(t, resp, &body)
	if body.Code != CodeBusy {
		t.Errorf("code = %q, want %q", body.Code, CodeBusy)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.station.Tick()
	env.get(t, "/api/health")

	resp := env.get(t, "/metrics")
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`templog_http_requests_total{code="200",route="/api/health"} 1`,
		"templog_ticks_total 1",
		"templog_history_readings 2",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestWebSocketBootstrap(t *testing.T) {
	env := newTestEnv(t, nil)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial struct {
		Type string `json:"type"`
		Data struct {
			Current float64           `json:"current"`
			History []reading.Reading `json:"history"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if initial.Type != "initial" || initial.Data.Current != 28.5 || len(initial.Data.History) != 1 {
		t.Errorf("initial = %+v", initial)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.station.Viewers() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r := env.station.Tick()

	var push struct {
		Type string          `json:"type"`
		Data reading.Reading `json:"data"`
	}
	if err := conn.ReadJSON(&push); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if push.Type != "temperature" || push.Data.ID != r.ID {
		t.Errorf("push = %+v, want reading %d", push, r.ID)
	}
}

func TestSSEBootstrap(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/temperature/stream")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	if event != "initial" || !strings.Contains(data, `"current":28.5`) {
		t.Errorf("first event = %s %s", event, data)
	}
}

func TestStaticSPAInProduction(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.Environment = "production"
		cfg.Server.StaticDir = dir
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/app.js", http.StatusOK, "console.log(1)"},
		{"/", http.StatusOK, "<html>app</html>"},
		{"/charts/today", http.StatusOK, "<html>app</html>"},
	}
	for _, tt := range tests {
		resp := env.get(t, tt.path)
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != tt.status || string(body) != tt.body {
			t.Errorf("GET %s = %d %q, want %d %q", tt.path, resp.StatusCode, body, tt.status, tt.body)
		}
	}

	if resp := env.get(t, "/api/unknown"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /api/unknown = %d, want 404", resp.StatusCode)
	}
	if resp := env.get(t, "/api/health"); resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/health = %d, want 200", resp.StatusCode)
	}
}

func TestStaticDisabledInDevelopment(t *testing.T) {
	env := newTestEnv(t, nil)

	if resp := env.get(t, "/"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET / = %d, want 404 outside production", resp.StatusCode)
	}
}

func TestWriteErrorFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusServiceUnavailable, CodeUnavailable, "No reading available yet")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if got := strings.Join(keys, ","); got != "code,correlationId,message,result" {
		t.Errorf("envelope keys = %s, want code,correlationId,message,result", got)
	}
	if body["code"] != CodeUnavailable || body["message"] != "No reading available yet" {
		t.Errorf("envelope = %v", body)
	}
}
