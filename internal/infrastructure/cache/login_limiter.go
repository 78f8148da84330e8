package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision resultado de consultar el límite para una clave.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// SlidingWindowLimiter cuenta intentos por clave en una ventana deslizante (ZSET por clave).
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	prefix string
	max    int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindowLimiter crea el limitador. max <= 0 desactiva el límite.
func NewSlidingWindowLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) *SlidingWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{rdb: rdb, prefix: prefix, max: max, window: window, now: time.Now}
}

// Allow registra el intento y decide si entra en la ventana.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	d := Decision{Allowed: true, Limit: l.max, Remaining: l.max, ResetAt: now.Add(l.window)}
	if l.max <= 0 {
		return d, nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	windowStart := now.Add(-l.window)

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return d, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}

	count := int(countCmd.Val())
	d.Allowed = count < l.max
	d.Remaining = l.max - count - 1
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, nil
}
