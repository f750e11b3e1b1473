package cart

import (
	"context"
	"sync"
	"time"
)

// DefaultIdleTTL is how long an untouched session cart is kept.
const DefaultIdleTTL = 2 * time.Hour

type session struct {
	cart     *Cart
	lastSeen time.Time
}

// Sessions keeps one cart per client session. Carts are created on first
// write and forgotten after sitting idle for the TTL.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	carts map[string]*session
}

// NewSessions returns an empty session registry evicting carts idle for
// longer than ttl, or DefaultIdleTTL if ttl is not positive.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Sessions{ttl: ttl, now: time.Now, carts: make(map[string]*session)}
}

// Get returns the cart for id, creating it on first use.
func (s *Sessions) Get(id string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.carts[id]
	if !ok {
		sess = &session{cart: New()}
		s.carts[id] = sess
	}
	sess.lastSeen = s.now()
	return sess.cart
}

// Lookup returns the cart for id without creating one.
func (s *Sessions) Lookup(id string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.carts[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.cart, true
}

// Drop forgets the cart for id.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.carts)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.carts {
		if sess.lastSeen.Before(cutoff) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed
}

// SweepEvery runs Sweep at interval until ctx is done.
func (s *Sessions) SweepEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
