package gate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDoSerializesAndEnforcesCooldown(t *testing.T) {
	const cooldown = 20 * time.Millisecond
	g := New(cooldown)

	type span struct{ start, end time.Time }
	var mu sync.Mutex
	var spans []span

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(context.Background(), func() error {
				s := span{start: time.Now()}
				time.Sleep(5 * time.Millisecond)
				s.end = time.Now()
				mu.Lock()
				spans = append(spans, s)
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(spans) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		gap := spans[i].start.Sub(spans[i-1].end)
		if gap < 0 {
			t.Fatalf("executions %d and %d overlapped", i-1, i)
		}
		if gap < cooldown {
			t.Errorf("only %v elapsed between executions %d and %d, want >= %v", gap, i-1, i, cooldown)
		}
	}
}

func TestDoReturnsFnError(t *testing.T) {
	g := New(time.Millisecond)
	want := &ErrExhausted{Attempts: 1}
	if err := g.Do(context.Background(), func() error { return want }); err != want {
		t.Fatalf("Do returned %v, want the fn error", err)
	}
}

func TestDoCancellationCutsCooldownShort(t *testing.T) {
	g := New(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := g.Do(ctx, func() error { return nil }); err != nil {
		t.Fatalf("Do returned %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled cooldown still slept %v", elapsed)
	}
}

func TestNewDefaultsCooldown(t *testing.T) {
	g := New(0)
	if g.cooldown != 50*time.Millisecond {
		t.Fatalf("default cooldown = %v, want 50ms", g.cooldown)
	}
}
