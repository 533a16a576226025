package push_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
	"github.com/dmitrymomot/notifyplan/pkg/push"
)

var subscription = notifications.PushSubscription{
	Endpoint: "https://push.example.com/abc",
	Keys:     map[string]string{"p256dh": "key", "auth": "secret"},
}

func newClient(t *testing.T, h http.HandlerFunc, mutate ...func(*push.Config)) *push.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := push.Config{GatewayURL: srv.URL, SigningSecret: "s3cret", MaxRetries: 2, Timeout: time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := push.New(cfg,
		push.WithBackoff(push.FixedBackoff{Interval: time.Millisecond}),
		push.WithLogger(logger.Nop()),
	)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"", "ftp://gw.example.com", "/relative", "http://"} {
		_, err := push.New(push.Config{GatewayURL: u})
		assert.ErrorIs(t, err, push.ErrInvalidConfig, u)
	}
	_, err := push.New(push.Config{GatewayURL: "https://gw.example.com", MaxRetries: -1})
	assert.ErrorIs(t, err, push.ErrInvalidConfig)
}

func TestClient_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	payload := notifications.PushPayload{Title: "Rent", Body: "Due Friday", Data: map[string]any{"notificationId": "n1"}}

	t.Run("signed json post", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, push.Verify("s3cret", body, r.Header, time.Minute, time.Now()))
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, got["delivery_id"], r.Header.Get(push.HeaderDelivery))
			w.WriteHeader(http.StatusAccepted)
		})

		out, err := c.Send(ctx, subscription, payload)
		require.NoError(t, err)
		assert.True(t, out.Success)

		assert.NotEmpty(t, got["delivery_id"])
		sub := got["subscription"].(map[string]any)
		assert.Equal(t, "https://push.example.com/abc", sub["endpoint"])
		n := got["notification"].(map[string]any)
		assert.Equal(t, "Rent", n["title"])
		assert.Equal(t, "Due Friday", n["body"])
		assert.Equal(t, "n1", n["data"].(map[string]any)["notificationId"])
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		var ids []string
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			ids = append(ids, r.Header.Get(push.HeaderDelivery))
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		out, err := c.Send(ctx, subscription, payload)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, int32(3), calls.Load())
		require.Len(t, ids, 3)
		assert.Equal(t, ids[0], ids[2])
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		out, err := c.Send(ctx, subscription, payload)
		assert.ErrorIs(t, err, push.ErrDeliveryFailed)
		assert.False(t, out.Success)
		assert.Contains(t, out.Error, "3 attempts")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "bad payload", http.StatusBadRequest)
		})

		out, err := c.Send(ctx, subscription, payload)
		assert.ErrorIs(t, err, push.ErrPermanentFailure)
		assert.Contains(t, out.Error, "bad payload")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gone subscription", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusGone)
		})

		_, err := c.Send(ctx, subscription, payload)
		assert.ErrorIs(t, err, push.ErrSubscriptionGone)
	})

	t.Run("empty endpoint", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(http.ResponseWriter, *http.Request) { t.Error("unexpected request") })

		_, err := c.Send(ctx, notifications.PushSubscription{}, payload)
		assert.ErrorIs(t, err, push.ErrInvalidSubscription)
	})

	t.Run("circuit opens after repeated exhaustion", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}, func(cfg *push.Config) {
			cfg.MaxRetries = 0
			cfg.FailureThreshold = 2
			cfg.RecoveryTimeout = time.Hour
		})

		for range 2 {
			_, err := c.Send(ctx, subscription, payload)
			assert.ErrorIs(t, err, push.ErrDeliveryFailed)
		}
		assert.Equal(t, push.CircuitOpen, c.Circuit().State())

		_, err := c.Send(ctx, subscription, payload)
		assert.ErrorIs(t, err, push.ErrCircuitOpen)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("unsigned when no secret", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get(push.HeaderSignature))
			assert.NotEmpty(t, r.Header.Get(push.HeaderDelivery))
			w.WriteHeader(http.StatusOK)
		}, func(cfg *push.Config) { cfg.SigningSecret = "" })

		_, err := c.Send(ctx, subscription, payload)
		require.NoError(t, err)
	})

	t.Run("cancelled during backoff", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		c, err := push.New(push.Config{GatewayURL: srv.URL, MaxRetries: 5},
			push.WithBackoff(push.FixedBackoff{Interval: time.Hour}),
			push.WithLogger(logger.Nop()),
		)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = c.Send(short, subscription, payload)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
