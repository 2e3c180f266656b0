//
//
package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
)

// wrap applies the outer middleware: panic recovery, CORS and access logging.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = handlers.CombinedLoggingHandler(s.accessLog, h)
	h = handlers.CORS(s.corsOptions()...)(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.log)),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// corsOptions reflects the request origin and allows credentials. An empty
// origin list accepts every origin.
func (s *Server) corsOptions() []handlers.CORSOption {
	allowed := make(map[string]bool, len(s.server.CORSOrigins))
	for _, o := range s.server.CORSOrigins {
		allowed[o] = true
	}

	return []handlers.CORSOption{
		handlers.AllowedOriginValidator(func(origin string) bool {
			return len(allowed) == 0 || allowed[origin]
		}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept"}),
	}
}

// instrument counts requests by route template and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m := httpsnoop.CaptureMetrics(next, w, r)
		s.metrics.HTTPRequest(route, m.Code)
	})
}

// throttle rejects clients exceeding their request budget with 429.
func (s *Server) throttle(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			WriteError(w, http.StatusTooManyRequests, CodeBusy, "Too many requests, retry with backoff")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

const limiterIdleTTL = 5 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

// newIPLimiter returns nil when throttling is disabled.
func newIPLimiter(cfg config.RateLimit) *ipLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{
		clients:   make(map[string]*limiterEntry),
		limit:     rate.Limit(cfg.RequestsPerSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for key, e := range l.clients {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.clients[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
