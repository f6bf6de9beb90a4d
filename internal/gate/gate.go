// Package gate serializes all transport access for one session: a
// mutual-exclusion gate held for the whole request/response exchange plus
// a mandatory cooldown, and the retry policy that absorbs transient
// errors. The inverter is a single-client device with no pipelining;
// back-to-back or concurrent requests produce spurious timeouts and
// slave-busy responses.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate serializes all transport-facing operations for one session and
// enforces the mandatory post-request cooldown before the next caller may
// proceed.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
}

// New builds a Gate. A cooldown <= 0 selects the 50ms default.
func New(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = 50 * time.Millisecond
	}
	return &Gate{cooldown: cooldown}
}

// Do acquires the exclusive section, runs fn (the request/response exchange
// and any retry attempts belonging to it), then sleeps the cooldown before
// releasing, so the next waiter only starts after the cooldown has elapsed.
// Cancelling ctx cuts the cooldown short; fn's result is returned either
// way.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := fn()
	select {
	case <-time.After(g.cooldown):
	case <-ctx.Done():
	}
	return err
}
