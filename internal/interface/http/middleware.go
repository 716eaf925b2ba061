package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/farmcast/internal/infra/config"
)

// errorHandlingMiddleware renders the last error recorded on the context unless the handler
// already wrote a body.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		attrs := []any{"code", httpErr.Code, "status", httpErr.Status, "route", c.FullPath(), "error", httpErr.Err}
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}
		c.JSON(httpErr.Status, httpErr.body())
	}
}

// rateLimitMiddleware throttles each client IP with a token bucket. Rejections carry a
// Retry-After hint of one token's refill time.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	buckets := newClientBuckets(cfg, time.Now)
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(cfg.RequestsPerMinute))))
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if buckets.take(ip) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "ip", ip, "route", c.FullPath())
		c.Header("Retry-After", retryAfter)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, codeRateLimited, "too many requests", nil))
	}
}

type clientBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute float64
	burst     float64
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func newClientBuckets(cfg config.RateLimitConfig, now func() time.Time) *clientBuckets {
	return &clientBuckets{
		buckets:   make(map[string]*bucket),
		perMinute: float64(cfg.RequestsPerMinute),
		burst:     float64(cfg.Burst),
		idle:      5 * time.Minute,
		now:       now,
	}
}

func (b *clientBuckets) take(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	bk, ok := b.buckets[ip]
	if !ok {
		bk = &bucket{tokens: b.burst}
		b.buckets[ip] = bk
	} else if elapsed := now.Sub(bk.lastSeen).Minutes(); elapsed > 0 {
		bk.tokens = math.Min(b.burst, bk.tokens+elapsed*b.perMinute)
	}
	bk.lastSeen = now
	b.sweepLocked(now)
	if bk.tokens < 1 {
		return false
	}
	bk.tokens--
	return true
}

// sweepLocked forgets idle clients at most once per idle period.
func (b *clientBuckets) sweepLocked(now time.Time) {
	if now.Sub(b.lastSweep) < b.idle {
		return
	}
	b.lastSweep = now
	for ip, bk := range b.buckets {
		if now.Sub(bk.lastSeen) > b.idle {
			delete(b.buckets, ip)
		}
	}
}
