// Package health serves /livez and /readyz probes backed by periodic checks.
//
// A check flips to unhealthy after failureThreshold consecutive failures and
// back after successThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Touched only by the probe's own goroutine.
	fails, passes int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.check(ctx); err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.passes = 0
		if p.fails++; p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.lastErr.Store(nil)
	p.fails = 0
	if p.passes++; p.passes >= successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Health tracks liveness and readiness of the service. It starts not ready.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health with no checks.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check reported by /livez.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a check reported by /readyz.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start runs every registered check immediately and then every interval,
// each in its own goroutine, until Stop or ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := slices.Concat(h.liveness, h.readiness)
	h.mu.Unlock()

	for _, p := range probes {
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
			}
		}()
	}
}

// Stop halts the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady toggles the manual readiness gate, typically false during
// shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(failures(h.snapshot(&h.readiness))) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(&h.liveness)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(&h.readiness))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func (h *Health) snapshot(list *[]*probe) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(*list)
}

func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			out[p.name] = msg
		}
	}
	return out
}

// writeStatus answers {"status":"ok"} or 503 with the failing checks.
func writeStatus(w http.ResponseWriter, failed map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	code, status := http.StatusOK, "ok"
	if len(failed) > 0 {
		code, status = http.StatusServiceUnavailable, "unhealthy"
	}

	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if len(failed) == 0 {
			return
		}
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		slices.Sort(names)
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failed[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
