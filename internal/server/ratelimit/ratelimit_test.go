package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_Admit_FixedWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(nil, WithClock(clock.Now))

	for i := 1; i <= 5; i++ {
		if !limiter.Admit("client", 5, time.Minute) {
			t.Fatalf("request %d should be admitted", i)
		}
	}
	if limiter.Admit("client", 5, time.Minute) {
		t.Error("6th request within the window should be rejected")
	}

	clock.Advance(59 * time.Second)
	if limiter.Admit("client", 5, time.Minute) {
		t.Error("window does not slide: still rejected before it elapses")
	}

	clock.Advance(2 * time.Second)
	if !limiter.Admit("client", 5, time.Minute) {
		t.Error("request after the window elapsed should be admitted")
	}
	for i := 2; i <= 5; i++ {
		if !limiter.Admit("client", 5, time.Minute) {
			t.Errorf("request %d of the new window should be admitted", i)
		}
	}
	if limiter.Admit("client", 5, time.Minute) {
		t.Error("new window must cap at the limit again")
	}
}

func TestLimiter_Admit_WindowBoundaryIsExclusive(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(nil, WithClock(clock.Now))

	limiter.Admit("client", 1, time.Minute)
	clock.Advance(time.Minute)
	if limiter.Admit("client", 1, time.Minute) {
		t.Error("exactly one window later is still the same window")
	}
	clock.Advance(time.Millisecond)
	if !limiter.Admit("client", 1, time.Minute) {
		t.Error("window should reset once strictly exceeded")
	}
}

func TestLimiter_Admit_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(nil, WithClock(newFakeClock().Now))

	if !limiter.Admit("a", 1, time.Minute) || !limiter.Admit("b", 1, time.Minute) {
		t.Fatal("first request of each client should be admitted")
	}
	if limiter.Admit("a", 1, time.Minute) {
		t.Error("client a should be limited")
	}
}

func TestLimiter_Allow_GenerateLetter(t *testing.T) {
	clock := newFakeClock()
	config := &Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(10, time.Minute),
	}
	limiter := NewLimiter(config, WithClock(clock.Now))

	for i := 1; i <= 10; i++ {
		allowed, info := limiter.Allow("1.2.3.4", GenerateLetterPath, "POST")
		if !allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if info.Limit != 10 {
			t.Errorf("expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 10-i {
			t.Errorf("request %d: expected remaining %d, got %d", i, 10-i, info.Remaining)
		}
	}

	clock.Advance(15 * time.Second)
	allowed, info := limiter.Allow("1.2.3.4", GenerateLetterPath, "POST")
	if allowed {
		t.Fatal("11th request should be denied")
	}
	if info.RetryAfter != 45*time.Second {
		t.Errorf("expected retry after 45s, got %v", info.RetryAfter)
	}
	if !info.ResetTime.Equal(clock.Now().Add(45 * time.Second)) {
		t.Errorf("unexpected reset time %v", info.ResetTime)
	}

	// Other endpoints use their own counters.
	if allowed, _ := limiter.Allow("1.2.3.4", "/api/feedback", "POST"); !allowed {
		t.Error("feedback should not share the generate-letter counter")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
	}
	limiter := NewLimiter(config)

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/x", "GET"); !allowed {
			t.Errorf("whitelisted client request %d should be allowed", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"10.0.0.2": true},
	}
	limiter := NewLimiter(config)

	if allowed, _ := limiter.Allow("10.0.0.2", "/x", "GET"); allowed {
		t.Error("blacklisted client should be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})

	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("c", GenerateLetterPath, "POST"); !allowed {
			t.Fatal("disabled limiter should allow everything")
		}
	}
	if limiter.Len() != 0 {
		t.Errorf("disabled limiter should not track entries, got %d", limiter.Len())
	}
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("c", "/health", "GET"); !allowed {
			t.Fatal("health checks should never be limited")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(nil, WithClock(newFakeClock().Now))

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Admit("shared", 50, time.Minute) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("expected exactly 50 admitted, got %d", admitted)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(nil, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		limiter.Admit(fmt.Sprintf("client-%d", i), 10, time.Minute)
	}
	clock.Advance(30 * time.Second)
	limiter.Admit("fresh", 10, time.Minute)
	limiter.Admit("long-window", 10, time.Hour)

	clock.Advance(31 * time.Second)
	limiter.Cleanup()

	if got := limiter.Len(); got != 2 {
		t.Errorf("expected only live windows to remain, got %d entries", got)
	}
}

func TestLimiter_RunStops(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- limiter.Run(context.Background()) }()

	limiter.Stop()
	limiter.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestLimiter_RunHonorsContext(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Run(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	if limiter.config == nil || !limiter.config.Enabled {
		t.Fatal("nil config should produce an enabled default config")
	}
	if limiter.config.DefaultLimit != 120 {
		t.Errorf("expected default limit 120, got %d", limiter.config.DefaultLimit)
	}
}
