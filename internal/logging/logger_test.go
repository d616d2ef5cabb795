package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.With("component", "auth").Warn(context.Background(), "rejected", "reason", "expired")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "rejected", line["msg"])
	require.Equal(t, "auth", line["component"])
	require.Equal(t, "expired", line["reason"])
}

func TestWithFields_AppendsContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithFields(context.Background(), "user_id", "u1")
	ctx = WithFields(ctx, "role", "editor")
	l.Info(ctx, "product created", "product_id", "p1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "u1", line["user_id"])
	require.Equal(t, "editor", line["role"])
	require.Equal(t, "p1", line["product_id"])

	require.Equal(t, ctx, WithFields(ctx), "no args leaves the context unchanged")
}

func TestNew_HandlerFollowsEnv(t *testing.T) {
	var prod bytes.Buffer
	New(&prod, "Production").Info(context.Background(), "started")
	var line map[string]any
	require.NoError(t, json.Unmarshal(prod.Bytes(), &line))
	require.Equal(t, "tradesite", line["service"])

	var dev bytes.Buffer
	New(&dev, "development").Info(context.Background(), "started")
	require.True(t, strings.Contains(dev.String(), "service=tradesite"), dev.String())
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	l := Discard()
	l.Info(context.Background(), "x")
	l.Error(context.Background(), "y", "k", 1)
}
