package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestNew_JSONIncludesTraceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(config.LogConfig{Level: "debug", Format: "json"}, &buf), "stats")

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "computed balance", KeyUserID, "u-1")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "computed balance", record["msg"])
	assert.Equal(t, "stats", record[KeyComponent])
	assert.Equal(t, "trace-123", record[KeyTraceID])
	assert.Equal(t, "u-1", record[KeyUserID])
}

func TestNew_TextFormatAndLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LogConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestTraceIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestRequestLogger_LogsStatusAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LogConfig{Level: "info", Format: "json"}, &buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	req = req.WithContext(ContextWithTraceID(req.Context(), "trace-42"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestLogger(logger)(func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"status": "missing"})
	})
	require.NoError(t, handler(c))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "http", record[KeyComponent])
	assert.Equal(t, float64(http.StatusNotFound), record["status"])
	assert.Equal(t, "trace-42", record[KeyTraceID])
}
