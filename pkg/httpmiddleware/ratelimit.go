package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

type window struct {
	start time.Time
	count float64
	prev  float64
}

// Limiter approximates a sliding window by weighting the previous fixed
// window's count by its remaining overlap.
type Limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

// NewLimiter returns a Limiter for cfg.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &Limiter{cfg: cfg, now: time.Now, clients: make(map[string]*window)}
}

// Allow records a hit for key and reports whether it fits the limit along
// with the remaining budget and the end of the current window.
func (l *Limiter) Allow(key string) (remaining int, reset time.Time, ok bool) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.cfg.Window)
	w, found := l.clients[key]
	switch {
	case !found:
		w = &window{start: start}
		l.clients[key] = w
	case start.Sub(w.start) >= 2*l.cfg.Window:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.count}
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.cfg.Window)
	used := w.prev*overlap + w.count
	reset = w.start.Add(l.cfg.Window)
	if used >= float64(l.cfg.Max) {
		return 0, reset, false
	}
	w.count++
	return max(l.cfg.Max-int(used)-1, 0), reset, true
}

// Sweep drops clients idle for two windows.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-2 * l.cfg.Window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, k)
		}
	}
}

// Middleware enforces the limit, answering 429 with a Retry-After header.
func (l *Limiter) Middleware() Middleware {
	limit := strconv.Itoa(l.cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.Allow(l.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := reset.Sub(l.now()).Round(time.Second)
				h.Set("Retry-After", strconv.Itoa(max(int(wait/time.Second), 1)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit is a limiter without background eviction.
func RateLimit(cfg RateLimitConfig) Middleware {
	return NewLimiter(cfg).Middleware()
}

// RateLimitWithCleanup also sweeps idle clients every two windows until ctx
// is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := NewLimiter(cfg)
	go func() {
		t := time.NewTicker(2 * cfg.Window)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
	return l.Middleware()
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
