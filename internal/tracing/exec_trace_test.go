package tracing

import (
	"os"
	"testing"

	"entrylist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldStartExecTrace(t *testing.T) {
	cfg := config.TelemetryConfig{}
	assert.False(t, ShouldStartExecTrace(cfg, "IMDb"))

	cfg.ExecTrace = true
	assert.True(t, ShouldStartExecTrace(cfg, "IMDb"))

	cfg.ExecTraceScope = "Netflix"
	assert.False(t, ShouldStartExecTrace(cfg, "IMDb"))
}

func TestStartExecTrace(t *testing.T) {
	cfg := config.TelemetryConfig{ExecTrace: true, ExecTraceDir: t.TempDir()}

	stop := StartExecTrace(cfg, "IMDb", "run")
	assert.True(t, IsExecTraceActive())

	again := StartExecTrace(cfg, "IMDb", "run2")
	again()
	assert.True(t, IsExecTraceActive(), "a nested start does not stop the running trace")

	stop()
	assert.False(t, IsExecTraceActive())

	files, err := os.ReadDir(cfg.ExecTraceDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
