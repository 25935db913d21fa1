package main

import (
	"bytes"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/slabkit/internal/stress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

var small = []string{"--workers", "2", "--objects", "8", "--iterations", "4", "--pool-capacity", "1024"}

func TestArenaCmd_JSON(t *testing.T) {
	out, err := run(t, append([]string{"arena", "--json"}, small...)...)
	require.NoError(t, err)

	var r stress.Report
	require.NoError(t, gojson.Unmarshal([]byte(out), &r))
	assert.Equal(t, "arena", r.Workload)
	assert.Equal(t, 2, r.Workers)
	assert.Equal(t, int64(4*2*8*4), r.Operations)
	assert.Equal(t, "ok", r.Audit)
}

func TestAllocCmd_Text(t *testing.T) {
	out, err := run(t, append([]string{"alloc", "--max-size", "5000", "--rate", "100000"}, small...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "workload:    alloc")
	assert.Contains(t, out, "audit:       ok")
}

func TestArenaCmd_Metrics(t *testing.T) {
	out, err := run(t, append([]string{"arena", "--metrics-addr", "127.0.0.1:0"}, small...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "audit:       ok")
}

func TestArenaCmd_InvalidConfig(t *testing.T) {
	_, err := run(t, "arena", "--workers", "0")
	require.ErrorIs(t, err, stress.ErrInvalidConfig)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	_, err := run(t, "alloc", "extra")
	require.Error(t, err)
}
