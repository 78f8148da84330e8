package postgres

import (
	"context"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/jhoicas/Bodega-api/pkg/config"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// PoolOption ajusta la configuración del pool antes de abrirlo.
type PoolOption func(*pgxpool.Config)

// WithQueryLog registra las consultas en el logger de la app con el nivel indicado
// ("debug" para ver cada consulta, "warn" solo errores de pgx).
func WithQueryLog(log *logger.Logger, level string) PoolOption {
	return func(pc *pgxpool.Config) {
		lvl, err := tracelog.LogLevelFromString(level)
		if err != nil {
			lvl = tracelog.LogLevelWarn
		}
		pc.ConnConfig.Tracer = &tracelog.TraceLog{Logger: queryLogger{log: log}, LogLevel: lvl}
	}
}

// NewPool abre el pool de PostgreSQL. DATABASE_URL tiene prioridad sobre DB_*.
// Todas las conexiones registran el codec NUMERIC → decimal.Decimal.
func NewPool(ctx context.Context, cfg config.DBConfig, opts ...PoolOption) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	// Docker suele no tener IPv6: si el host resuelve a IPv4 se marca tcp4.
	poolConfig.ConnConfig.DialFunc = dialPreferIPv4

	maxConns := int32(cfg.MaxConns)
	if maxConns <= 0 {
		maxConns = 25
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	for _, o := range opts {
		o(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ips[0].String(), port))
}

// queryLogger adapta pkg/logger a tracelog.Logger.
type queryLogger struct {
	log *logger.Logger
}

func (l queryLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	zl := l.log.WithContext(ctx)
	ev := zl.Debug()
	switch level {
	case tracelog.LogLevelError:
		ev = zl.Error()
	case tracelog.LogLevelWarn:
		ev = zl.Warn()
	case tracelog.LogLevelInfo:
		ev = zl.Info()
	case tracelog.LogLevelTrace:
		ev = zl.Trace()
	}
	ev.Fields(data).Str("component", "pgx").Msg(msg)
}
