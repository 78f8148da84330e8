package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter_SinLimiteNoConsultaRedis(t *testing.T) {
	// cliente apuntando a un puerto cerrado: si se usara, Allow devolvería error
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	d, err := NewSlidingWindowLimiter(rdb, "login", 0, time.Minute).Allow(context.Background(), "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestSlidingWindowLimiter_ErrorDeRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	d, err := NewSlidingWindowLimiter(rdb, "login", 5, time.Minute).Allow(context.Background(), "ip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit login:ip")
	assert.True(t, d.Allowed, "la decisión por defecto deja pasar")
}

func TestNewRedis_URLInvalida(t *testing.T) {
	_, err := NewRedis(context.Background(), "no-es-una-url")
	assert.Error(t, err)
}
