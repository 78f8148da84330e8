package postgres

import (
	"bytes"
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/pkg/logger"
)

func TestQueryLogger_EscribeNivelYDatos(t *testing.T) {
	var buf bytes.Buffer
	ql := queryLogger{log: logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf})}

	ql.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELECT 1"})

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
	assert.Contains(t, buf.String(), `"component":"pgx"`)
}

func TestWithQueryLog_NivelInvalidoUsaWarn(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)

	WithQueryLog(logger.Nop(), "ruidoso")(pc)

	tl, ok := pc.ConnConfig.Tracer.(*tracelog.TraceLog)
	require.True(t, ok)
	assert.Equal(t, tracelog.LogLevelWarn, tl.LogLevel)
}
