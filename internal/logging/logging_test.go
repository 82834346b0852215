package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "gig-wallet", "info", "production")

	logger.Debug("hidden")
	logger.Info("funding request created", "request_id", "r-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "gig-wallet", line["service"])
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "funding request created", line["msg"])
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "gig-wallet", "debug", "development")

	logger.Debug("lock acquired")
	assert.Contains(t, buf.String(), "msg=\"lock acquired\"")
	assert.Contains(t, buf.String(), "service=gig-wallet")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), l)
	assert.Equal(t, l, FromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(input))
		})
	}
}
