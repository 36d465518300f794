package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/response"
	"github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	perSecond rate.Limit
	burst     int
	skipPaths map[string]bool
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
	swept   time.Time
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerMin per client
// with bursts of cfg.BurstSize
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger, skipPaths ...string) *RateLimiter {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &RateLimiter{
		perSecond: rate.Limit(float64(cfg.RequestsPerMin) / 60),
		burst:     burst,
		skipPaths: skip,
		logger:    logger.Named("rate-limit"),
		now:       time.Now,
		clients:   make(map[string]*clientLimiter),
	}
}

// Handler rejects requests over the limit with 429 and a Retry-After header
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		limiter := l.limiterFor(ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(l.now()))))

		if !limiter.AllowN(l.now(), 1) {
			l.logger.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
				zap.String("user_agent", r.UserAgent()),
			)
			retryAfter := 1
			if l.perSecond > 0 {
				retryAfter = int(1/float64(l.perSecond)) + 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, r, l.logger, errors.NewAppError(
				errors.CodeTooManyRequests,
				"Too many requests. Please try again later.",
				"",
			).WithMetadata("retry_after", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limiterFor(ip string) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > limiterIdleTTL {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
		l.swept = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// clientIP expects chi's RealIP middleware to have normalised RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
