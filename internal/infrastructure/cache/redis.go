package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis crea el cliente y valida la conexión al arrancar.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// HealthCheck adapta el cliente al chequeo de /health.
type HealthCheck struct {
	rdb *redis.Client
}

// NewHealthCheck construye el adaptador.
func NewHealthCheck(rdb *redis.Client) HealthCheck { return HealthCheck{rdb: rdb} }

// Ping verifica la conexión.
func (h HealthCheck) Ping(ctx context.Context) error {
	return h.rdb.Ping(ctx).Err()
}
