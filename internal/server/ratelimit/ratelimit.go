// Package ratelimit provides per-client fixed-window rate limiting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is one client's counter for the current window.
type entry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks request counts per client key in fixed, non-sliding windows.
// Entries are created on first use and removed by the cleanup loop once
// their window has passed.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  *Config
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config, opts ...Option) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    120,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			EndpointConfigs: DefaultEndpointConfigs(10, time.Minute),
		}
	}
	if config.Whitelist == nil {
		config.Whitelist = make(map[string]bool)
	}
	if config.Blacklist == nil {
		config.Blacklist = make(map[string]bool)
	}

	l := &Limiter{
		entries: make(map[string]*entry),
		config:  config,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit counts one request for clientID and reports whether it fits in the
// current window. A missing entry, or one whose window started more than
// window ago, is reset to a count of one.
func (l *Limiter) Admit(clientID string, limit int, window time.Duration) bool {
	allowed, _ := l.admit(clientID, limit, window)
	return allowed
}

func (l *Limiter) admit(key string, limit int, window time.Duration) (bool, Info) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) > window {
		e = &entry{count: 1, windowStart: now, window: window}
		l.entries[key] = e
	} else {
		e.count++
	}

	allowed := e.count <= limit
	info := Info{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(0, limit-e.count),
		ResetTime: e.windowStart.Add(window),
	}
	if !allowed {
		info.RetryAfter = max(0, info.ResetTime.Sub(now))
	}
	return allowed, info
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, path string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	endpoint := MatchEndpoint(path, method, l.config.EndpointConfigs)
	key := clientID
	if endpoint == nil {
		endpoint = &EndpointConfig{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	} else {
		key = clientID + ":" + endpoint.Method + ":" + endpoint.Path
	}

	if endpoint.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	return l.admit(key, endpoint.Limit, endpoint.Window)
}

// Len returns the number of tracked entries.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run removes expired entries every CleanupInterval until ctx is done or
// Stop is called. It returns nil when cleanup is disabled.
func (l *Limiter) Run(ctx context.Context) error {
	if !l.config.Enabled || l.config.CleanupInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleanup removes entries whose window has elapsed.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.windowStart) > e.window {
			delete(l.entries, key)
		}
	}
}

// Stop ends a running cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
