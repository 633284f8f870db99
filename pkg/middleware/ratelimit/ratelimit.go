package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
)

// Counter is the subset of redis commands the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// MinWindow is the shortest window the limiter honours; shorter or unset
// windows are raised to it.
const MinWindow = time.Second

// Limiter is a fixed-window counter per client IP.
type Limiter struct {
	Store  Counter
	Prefix string
	Limit  int64
	Window time.Duration
}

func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *Limiter) window() time.Duration {
	if l.Window < MinWindow {
		return MinWindow
	}
	return l.Window
}

func (l *Limiter) key(c echo.Context, window time.Duration) string {
	slot := time.Now().UnixNano() / int64(window)
	return fmt.Sprintf("%s:%s:%d", l.Prefix, c.RealIP(), slot)
}

func retryAfter(window time.Duration) string {
	secs := int64((window + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}

// Middleware rejects requests over the limit with 429. Redis failures let
// the request through; the limiter is abuse protection, not a gate.
func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		window := l.window()
		key := l.key(c, window)

		count, err := l.Store.Incr(ctx, key).Result()
		if err != nil {
			logging.FromContext(ctx).Warn("rate_limit_error", "reason", "redis incr failed", "error", err)
			return next(c)
		}
		if count == 1 {
			if err := l.Store.Expire(ctx, key, window).Err(); err != nil {
				logging.FromContext(ctx).Warn("rate_limit_error", "reason", "redis expire failed", "error", err)
			}
		}

		if count > l.Limit {
			c.Response().Header().Set("Retry-After", retryAfter(window))
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		}
		return next(c)
	}
}
