// Package ratelimit counts requests per client in fixed one-minute windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window        = time.Minute
	staleAfter    = 10 * time.Minute
	defaultPerMin = 60
)

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: defaultPerMin,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter tracks one window per client IP. A background goroutine drops
// clients idle for more than ten minutes until Stop is called.
type Limiter struct {
	perMinute int
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	rejected int64
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start time.Time
	last  time.Time
	count int
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		perMinute: config.RequestsPerMinute,
		now:       time.Now,
		clients:   make(map[string]*clientWindow),
		stop:      make(chan struct{}),
	}
	go rl.sweep(config.CleanupInterval)
	return rl
}

// Allow reports whether clientIP may make another request. When it may
// not, retryAfter is the time left in the client's current window.
func (rl *Limiter) Allow(clientIP string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.clients[clientIP]
	if !exists || now.Sub(w.start) >= window {
		rl.clients[clientIP] = &clientWindow{start: now, last: now, count: 1}
		return true, 0
	}

	w.count++
	w.last = now
	if w.count > rl.perMinute {
		atomic.AddInt64(&rl.rejected, 1)
		return false, w.start.Add(window).Sub(now)
	}
	return true, 0
}

func (rl *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.dropIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *Limiter) dropIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAfter)
	dropped := 0
	for ip, w := range rl.clients {
		if w.last.Before(cutoff) {
			delete(rl.clients, ip)
			dropped++
		}
	}
	return dropped
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the idle sweep. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

type Metrics struct {
	Rejected      int64 `json:"rejected"`
	ActiveClients int   `json:"activeClients"`
	PerMinute     int   `json:"perMinute"`
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:      atomic.LoadInt64(&rl.rejected),
		ActiveClients: rl.ActiveClients(),
		PerMinute:     rl.perMinute,
	}
}

// Middleware limits requests whose method is listed; an empty list limits
// every request. Rejected requests get a Retry-After header in whole
// seconds before onLimit runs.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			ok, retryAfter := rl.Allow(extractIP(r))
			if !ok {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
