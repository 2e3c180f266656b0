//
//
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

// Connected is emitted after each successful dial.
type Connected struct{}

// Disconnected is emitted when a dial fails or the connection drops.
type Disconnected struct {
	Err error
}

// Client is a websocket viewer that reconnects after a fixed delay.
type Client struct {
	url    string
	delay  time.Duration
	dialer *websocket.Dialer
	log    *zap.Logger
}

// NewClient creates a client for cfg.ServerURL. log may be nil.
func NewClient(cfg config.ClientConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Client{
		url:    cfg.ServerURL,
		delay:  delay,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log,
	}
}

// Run connects and forwards Connected, Envelope and Disconnected events until
// ctx is done. It returns ctx.Err().
func (c *Client) Run(ctx context.Context, events chan<- interface{}) error {
	for {
		err := c.session(ctx, events)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Info("disconnected, retrying",
			zap.String("url", c.url),
			zap.Duration("delay", c.delay),
			zap.Error(err))
		if !emit(ctx, events, Disconnected{Err: err}) {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

// session runs one connection until it fails.
func (c *Client) session(ctx context.Context, events chan<- interface{}) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	c.log.Info("connected", zap.String("url", c.url))
	if !emit(ctx, events, Connected{}) {
		return ctx.Err()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("dropping malformed message", zap.Error(err))
			continue
		}
		if !emit(ctx, events, env) {
			return ctx.Err()
		}
	}
}

func emit(ctx context.Context, events chan<- interface{}, ev interface{}) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// ExportURL derives the CSV export endpoint from a websocket server URL.
func ExportURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/api/temperature/export"
	u.RawQuery = ""
	return u.String(), nil
}

// DownloadCSV saves the server's CSV export to dest.
func DownloadCSV(ctx context.Context, serverURL, dest string) error {
	exportURL, err := ExportURL(serverURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download export: unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}
