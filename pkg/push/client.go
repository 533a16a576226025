package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Client posts push notifications to a gateway that fans them out to
// browser and device push services.
type Client struct {
	cfg     Config
	http    *http.Client
	backoff Backoff
	circuit *CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
}

var _ notifications.PushTransport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = logger.Contextual(log)
		}
	}
}

// WithClock overrides time.Now for signatures.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New validates cfg and creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.GatewayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: gateway url must be an absolute http(s) url", ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		backoff: DefaultBackoff(),
		circuit: NewCircuitBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Circuit exposes the gateway circuit breaker.
func (c *Client) Circuit() *CircuitBreaker { return c.circuit }

type message struct {
	DeliveryID   string                         `json:"delivery_id"`
	Subscription notifications.PushSubscription `json:"subscription"`
	Notification notifications.PushPayload      `json:"notification"`
}

// Send delivers payload to sub. Network errors, 5xx and 408/425/429
// responses are retried up to MaxRetries times. A 404 or 410 answer means
// the subscription is gone and yields ErrSubscriptionGone.
func (c *Client) Send(ctx context.Context, sub notifications.PushSubscription, payload notifications.PushPayload) (notifications.Outcome, error) {
	if sub.Endpoint == "" {
		return fail(fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription))
	}
	if !c.circuit.Allow() {
		return fail(ErrCircuitOpen)
	}

	deliveryID := uuid.NewString()
	body, err := json.Marshal(message{DeliveryID: deliveryID, Subscription: sub, Notification: payload})
	if err != nil {
		return fail(errors.Join(ErrDeliveryFailed, err))
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.backoff.NextInterval(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fail(errors.Join(ErrDeliveryFailed, ctx.Err()))
			case <-timer.C:
			}
		}

		status, err := c.attempt(ctx, deliveryID, body)
		if err == nil {
			c.circuit.RecordSuccess()
			return notifications.Outcome{Success: true}, nil
		}
		lastErr = err

		c.logger.LogAttrs(ctx, slog.LevelDebug, "Push attempt failed",
			slog.String("delivery_id", deliveryID),
			slog.Int("attempt", attempt+1),
			slog.Int("status", status),
			logger.Error(err),
		)

		if permanent(status) {
			// The gateway answered; it is healthy.
			c.circuit.RecordSuccess()
			if status == http.StatusNotFound || status == http.StatusGone {
				return fail(fmt.Errorf("%w: %w", ErrSubscriptionGone, err))
			}
			return fail(fmt.Errorf("%w: %w", ErrPermanentFailure, err))
		}
	}

	c.circuit.RecordFailure()
	return fail(fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, c.cfg.MaxRetries+1, lastErr))
}

func (c *Client) attempt(ctx context.Context, deliveryID string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "notifyplan-push/1.0")
	req.Header.Set(HeaderDelivery, deliveryID)
	if c.cfg.SigningSecret != "" {
		Sign(c.cfg.SigningSecret, body, c.now(), deliveryID).Apply(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := fmt.Sprintf("gateway returned status %d", resp.StatusCode)
	if len(raw) > 0 {
		text := strings.ReplaceAll(string(raw), "\n", " ")
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		msg += ": " + text
	}
	return resp.StatusCode, errors.New(msg)
}

// permanent reports whether a status will not change on retry.
func permanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}

func fail(err error) (notifications.Outcome, error) {
	return notifications.Outcome{Error: err.Error()}, err
}
