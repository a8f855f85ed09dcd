package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("u-123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "u-123", attr.Value.Any())

	empty := logger.UserID(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, "provider", logger.Provider("polar").Key)
	assert.Equal(t, "feature", logger.Feature("magicFill").Key)
	assert.Equal(t, "period", logger.Period("2026-08").Key)
	assert.Equal(t, "event_type", logger.EventType("subscription.updated").Key)
	assert.Equal(t, "subscription_id", logger.SubscriptionID("sub_1").Key)
	assert.Equal(t, "component", logger.Component("webhook").Key)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithLevel(slog.LevelDebug),
		logger.WithAttr(slog.String("service", "tradecard")),
	)

	log.Debug("hello", logger.Provider("paddle"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "tradecard", rec["service"])
	assert.Equal(t, "paddle", rec["provider"])
}

func TestNew_InvalidFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat("yaml"))
	})
}
