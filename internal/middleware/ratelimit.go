package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// ExemptPaths are served without consuming tokens, e.g. long-lived
	// event streams and health checks.
	ExemptPaths []string
}

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client-IP token bucket limiter.
type RateLimiter struct {
	cfg    RateLimitConfig
	exempt map[string]struct{}

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Idle clients are swept until ctx is done.
func NewRateLimiter(ctx context.Context, cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:     cfg,
		exempt:  make(map[string]struct{}, len(cfg.ExemptPaths)),
		clients: map[string]*clientLimiter{},
		now:     time.Now,
	}
	for _, p := range cfg.ExemptPaths {
		rl.exempt[p] = struct{}{}
	}
	go rl.sweepLoop(ctx)
	return rl
}

func (rl *RateLimiter) sweepLoop(ctx context.Context) {
	t := time.NewTicker(limiterSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-limiterIdleTimeout)
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

// Handler wraps next. Over-limit requests get 429 with Retry-After.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := rl.exempt[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		limiter := rl.limiter(clientIP(r))
		reservation := limiter.Reserve()
		if !reservation.OK() {
			writeTooManyRequests(w, 0)
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			writeTooManyRequests(w, int(delay.Seconds())+1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		next.ServeHTTP(w, r)
	})
}

// clientIP uses RemoteAddr only; forwarded headers are spoofable.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
}
