package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
	rds "github.com/dmitrymomot/notifyplan/pkg/redis"
)

// RedisHub is a Hub backed by Redis pub/sub, so records published by one
// process reach subscribers connected to another.
type RedisHub struct {
	client     redis.UniversalClient
	prefix     string
	bufferSize int
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*subscriber]struct{}
	wg     sync.WaitGroup
}

// RedisOption configures a RedisHub.
type RedisOption func(*RedisHub)

// WithRedisPrefix sets the pub/sub channel prefix. Default "notifyplan:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(h *RedisHub) { h.prefix = prefix }
}

// WithRedisBufferSize sets the per-subscriber buffer. Default 16.
func WithRedisBufferSize(n int) RedisOption {
	return func(h *RedisHub) { h.bufferSize = max(n, 1) }
}

// WithRedisLogger sets the logger used for decode failures.
func WithRedisLogger(log *slog.Logger) RedisOption {
	return func(h *RedisHub) {
		if log != nil {
			h.logger = log
		}
	}
}

// NewRedisHub creates a hub on top of client. The client is not closed by Close.
func NewRedisHub(client redis.UniversalClient, opts ...RedisOption) *RedisHub {
	h := &RedisHub{
		client:     client,
		prefix:     "notifyplan:",
		bufferSize: 16,
		logger:     slog.Default(),
		subs:       make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RedisHub) channel(recipientID string) string {
	return rds.Key(h.prefix, "inapp", recipientID)
}

// Publish encodes rec as JSON and publishes it on the recipient's channel.
func (h *RedisHub) Publish(ctx context.Context, rec notifications.Record) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrHubClosed
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrEncodeRecord, err)
	}
	if err := h.client.Publish(ctx, h.channel(rec.RecipientID), payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription.
func (h *RedisHub) Subscribe(ctx context.Context, recipientID string) (Subscriber, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.mu.Unlock()

	ps := h.client.Subscribe(ctx, h.channel(recipientID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var sub *subscriber
	sub = newSubscriber(h.bufferSize, func() {
		cancel()
		_ = ps.Close()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	})

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = sub.Close()
		return nil, ErrHubClosed
	}
	h.subs[sub] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.forward(subCtx, recipientID, ps, sub)
	return sub, nil
}

func (h *RedisHub) forward(ctx context.Context, recipientID string, ps *redis.PubSub, sub *subscriber) {
	defer h.wg.Done()
	defer func() { _ = sub.Close() }()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var rec notifications.Record
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				h.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping undecodable in-app message",
					logger.UserID(recipientID),
					logger.Error(err),
				)
				continue
			}
			sub.send(rec)
		}
	}
}

// Close closes every subscriber and waits for their forwarders to stop.
func (h *RedisHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	h.wg.Wait()
	return nil
}
