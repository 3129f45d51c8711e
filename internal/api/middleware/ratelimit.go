package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"credit-engine/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow    = time.Second
	rateLimitKeyPrefix = "credit-engine:ratelimit:"
	limiterIdleTTL     = 10 * time.Minute
)

// WindowCounter is the subset of a redis client used for fixed-window counting.
type WindowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware limits requests per client IP. With a redis counter the
// limit is shared across replicas as a fixed one-second window; otherwise each
// process keeps its own token buckets.
type RateLimiterMiddleware struct {
	counter WindowCounter
	cfg     config.RateLimitConfig
	limit   int64
	logger  *slog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, counter WindowCounter, logger *slog.Logger) *RateLimiterMiddleware {
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RPS))
	}

	rl := &RateLimiterMiddleware{
		counter:  counter,
		cfg:      cfg,
		limit:    max(int64(math.Ceil(cfg.RPS)), int64(cfg.Burst)),
		logger:   logger.With("component", "RateLimiter"),
		visitors: make(map[string]*visitor),
	}

	switch {
	case !cfg.Enabled:
		rl.logger.Info("Rate limiting is disabled via configuration.")
	case counter != nil:
		rl.logger.Info("Rate limiter backed by redis", "limit", rl.limit, "window", rateLimitWindow)
	default:
		rl.logger.Info("Rate limiter backed by in-process token buckets", "rps", cfg.RPS, "burst", cfg.Burst)
	}
	return rl
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiterMiddleware) allowLocal(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// allowShared counts the request in redis. Redis failures let the request through.
func (rl *RateLimiterMiddleware) allowShared(ctx context.Context, ip string) bool {
	key := rateLimitKeyPrefix + ip
	count, err := rl.counter.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.ErrorContext(ctx, "Redis INCR failed during rate limiting check", "error", err, "ip", ip)
		return true
	}
	if count == 1 {
		if err := rl.counter.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
			rl.logger.ErrorContext(ctx, "Failed to set Redis EXPIRE for rate limit key", "error", err, "key", key)
		}
	}
	return count <= rl.limit
}

// Sweep drops token buckets idle for longer than limiterIdleTTL.
func (rl *RateLimiterMiddleware) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep periodically until ctx is done.
func (rl *RateLimiterMiddleware) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := rl.Sweep(now); n > 0 {
				rl.logger.Debug("Swept idle rate limiters", "removed", n)
			}
		}
	}
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)

		var allowed bool
		if rl.counter != nil {
			allowed = rl.allowShared(r.Context(), ip)
		} else {
			allowed = rl.allowLocal(ip, time.Now())
		}

		if !allowed {
			rl.logger.Warn("Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rateLimitWindow.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "RATE_LIMITED",
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
