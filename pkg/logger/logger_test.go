package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewWithHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogSweepWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.LogSweep(context.Background(), 3, 2*time.Minute, 15*time.Millisecond)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Expired Pending Bookings", rec["msg"])
	assert.EqualValues(t, 3, rec["expired"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestLogSweepFailureIsError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithComponent("expiry")

	l.LogSweepFailure(context.Background(), errors.New("connection reset"))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "expiry", rec["component"])
	assert.Equal(t, "connection reset", rec["error"])
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelInfo, getLogLevel(""))
}
