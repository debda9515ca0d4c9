package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-unlocker/internal/config"
)

func TestNewWithWriter_Logfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogFormatLogfmt, "info", "pdf-unlocker")

	require.NoError(t, level.Info(logger).Log("msg", "listening", "port", 3000))

	line := buf.String()
	assert.Contains(t, line, "level=info")
	assert.Contains(t, line, "svc=pdf-unlocker")
	assert.Contains(t, line, "msg=listening")
	assert.Contains(t, line, "port=3000")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogFormatJSON, "info", "svc")

	require.NoError(t, level.Warn(logger).Log("msg", "slow"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "slow", entry["msg"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	tests := []struct {
		lvl       string
		wantDebug bool
		wantInfo  bool
		wantError bool
	}{
		{lvl: "debug", wantDebug: true, wantInfo: true, wantError: true},
		{lvl: "info", wantDebug: false, wantInfo: true, wantError: true},
		{lvl: "warn", wantDebug: false, wantInfo: false, wantError: true},
		{lvl: "error", wantDebug: false, wantInfo: false, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.lvl, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, config.LogFormatLogfmt, tt.lvl, "svc")

			_ = level.Debug(logger).Log("msg", "d")
			_ = level.Info(logger).Log("msg", "i")
			_ = level.Error(logger).Log("msg", "e")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "msg=d"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "msg=i"))
			assert.Equal(t, tt.wantError, strings.Contains(out, "msg=e"))
		})
	}
}

func TestNew_StdioWithoutDebugIsSilent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio

	logger := New(cfg)
	assert.NoError(t, logger.Log("msg", "dropped"))
}
