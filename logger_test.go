package slabkit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/slabkit/alloc"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	l.WithComponent("pool").LogArena(ctx, "store", "a", 8, nil)
	assert.Contains(t, buf.String(), `"component":"pool"`)
	assert.Contains(t, buf.String(), `"msg":"arena created"`)

	buf.Reset()
	l.LogArena(ctx, "manager", "", 0, errors.New("boom"))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)

	buf.Reset()
	l.LogAudit(ctx, errors.New("duplicate"))
	assert.Contains(t, buf.String(), "audit failed")

	buf.Reset()
	var stats alloc.Stats
	stats.Classes[0].BytesMapped = 4096
	l.LogClose(ctx, stats, nil)
	assert.Contains(t, buf.String(), `"pool_bytes":4096`)

	buf.Reset()
	l.LogClose(ctx, stats, errors.New("unmap"))
	assert.Contains(t, buf.String(), "runtime close failed")
}

func TestLoggerConstructors(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
	assert.NotNil(t, NewJSONLogger(slog.LevelInfo))
	assert.NotNil(t, NewTextLogger(slog.LevelDebug))

	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
