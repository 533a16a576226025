package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
)

type testChannel string

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestIdentifierAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"user id", logger.UserID("u1"), "user_id", "u1"},
		{"notification id", logger.NotificationID("n1"), "notification_id", "n1"},
		{"workflow id", logger.WorkflowID("wf"), "workflow_id", "wf"},
		{"step id", logger.StepID("s1"), "step_id", "s1"},
		{"channel", logger.Channel(testChannel("sms")), "channel", "sms"},
		{"priority", logger.Priority(testChannel("high")), "priority", "high"},
		{"notification type", logger.NotificationType(testChannel("bill_due")), "notification_type", "bill_due"},
		{"step type", logger.StepType(testChannel("delay")), "step_type", "delay"},
		{"component", logger.Component("digest"), "component", "digest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}

func TestEmptyIdentifiers(t *testing.T) {
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.NotificationID("").Equal(slog.Attr{}))
	assert.True(t, logger.WorkflowID("").Equal(slog.Attr{}))
}

func TestChannels(t *testing.T) {
	attr := logger.Channels([]testChannel{"inapp", "email"})
	assert.Equal(t, "channels", attr.Key)
	assert.Equal(t, []string{"inapp", "email"}, attr.Value.Any())
}

func TestCount(t *testing.T) {
	attr := logger.Count(6)
	assert.Equal(t, "count", attr.Key)
	assert.Equal(t, int64(6), attr.Value.Int64())
}
