package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Client sends messages through an HTTP SMS gateway. Requests are
// form-encoded POSTs authenticated with a bearer key, throttled by a token
// bucket shared by all callers of the client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ notifications.SMSTransport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = logger.Contextual(log)
		}
	}
}

// New validates cfg and creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: gateway url is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.GatewayURL); err != nil {
		return nil, fmt.Errorf("%w: gateway url: %w", ErrInvalidConfig, err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSec > 0 {
		// Burst equals the per-second rate so short spikes are absorbed.
		limit = rate.Limit(cfg.RatePerSec)
		burst = cfg.RatePerSec
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type gatewayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Send delivers message to the phone number to. Gateway rejections are
// reported in the outcome and as ErrRejected.
func (c *Client) Send(ctx context.Context, to, message string) (notifications.SMSOutcome, error) {
	if strings.TrimSpace(to) == "" || message == "" {
		err := fmt.Errorf("%w: recipient and message are required", ErrInvalidMessage)
		return notifications.SMSOutcome{Error: err.Error()}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		err = errors.Join(ErrGateway, err)
		return notifications.SMSOutcome{Error: err.Error()}, err
	}

	form := url.Values{"to": {to}, "message": {message}}
	if c.cfg.From != "" {
		form.Set("from", c.cfg.From)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		err = errors.Join(ErrGateway, err)
		return notifications.SMSOutcome{Error: err.Error()}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		err = errors.Join(ErrGateway, err)
		return notifications.SMSOutcome{Error: err.Error()}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		err = errors.Join(ErrGateway, err)
		return notifications.SMSOutcome{Error: err.Error()}, err
	}

	var gr gatewayResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &gr); err != nil && resp.StatusCode < 300 {
			err = errors.Join(ErrGateway, fmt.Errorf("decode response: %w", err))
			return notifications.SMSOutcome{Error: err.Error()}, err
		}
	}

	if resp.StatusCode >= 300 || gr.Status == "failed" || gr.Status == "rejected" {
		reason := gr.Error
		if reason == "" {
			reason = resp.Status
		}
		err := fmt.Errorf("%w: %s", ErrRejected, reason)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "SMS rejected by gateway",
			slog.Int("status", resp.StatusCode),
			logger.Error(err),
		)
		return notifications.SMSOutcome{Error: err.Error(), MessageID: gr.ID}, err
	}

	return notifications.SMSOutcome{Success: true, MessageID: gr.ID}, nil
}
