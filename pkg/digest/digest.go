package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Engine collapses bursts of pending notifications into digests.
type Engine struct {
	storage notifications.Storage
	sender  notifications.Sender
	logger  *slog.Logger
	now     func() time.Time

	mu  sync.RWMutex
	cfg Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg.clone() }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine reading pending records from storage and sending
// through sender, usually a *notifications.Orchestrator.
func New(storage notifications.Storage, sender notifications.Sender, opts ...Option) *Engine {
	e := &Engine{
		storage: storage,
		sender:  sender,
		logger:  slog.Default(),
		now:     time.Now,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.clone()
}

// UpdateConfig applies fn to the configuration under the engine lock.
func (e *Engine) UpdateConfig(fn func(*Config)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.cfg)
}

// Process handles the pending backlog of one recipient: groups larger than
// MaxNotifications become one digest, smaller groups are sent one by one.
// A failing group does not stop the others; all failures are returned joined.
func (e *Engine) Process(ctx context.Context, recipientID string) error {
	cfg := e.Config()
	if !cfg.Enabled {
		return nil
	}

	now := e.now()
	pending, err := e.storage.Find(ctx, notifications.Filter{
		RecipientID:     recipientID,
		Unread:          true,
		Unsent:          true,
		ScheduledBefore: &now,
	}, notifications.FindOptions{
		OrderBy: notifications.OrderCreatedAsc,
		Limit:   cfg.batchLimit(),
	})
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "Failed to load digest backlog",
			logger.UserID(recipientID),
			logger.Error(err),
		)
		return errors.Join(ErrLoadBacklog, err)
	}
	if len(pending) == 0 {
		return nil
	}

	var errs []error
	for _, group := range GroupRecords(pending, cfg.GroupBy) {
		var err error
		if group.Count() > cfg.MaxNotifications {
			err = e.sendDigest(ctx, recipientID, group, cfg)
		} else {
			err = e.sendEach(ctx, recipientID, group)
		}
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelError, "Failed to process digest group",
				logger.UserID(recipientID),
				slog.String("group", group.Key),
				logger.Count(group.Count()),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessMany runs Process for every recipient. Failures are logged per
// recipient and never stop the batch.
func (e *Engine) ProcessMany(ctx context.Context, recipientIDs []string) error {
	var errs []error
	for _, id := range recipientIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := e.Process(ctx, id); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "Digest processing failed for recipient",
				logger.UserID(id),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("recipient %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) sendDigest(ctx context.Context, recipientID string, g Group, cfg Config) error {
	ids := g.IDs()
	res := e.sender.Send(ctx, notifications.Request{
		RecipientID: recipientID,
		Type:        notifications.TypeSystem,
		Title:       Title(g),
		Message:     Body(g),
		Priority:    notifications.PriorityMedium,
		Channels:    cfg.Channels,
		Data: map[string]any{
			"digest":          true,
			"type":            g.Key,
			"count":           g.Count(),
			"notificationIds": ids,
		},
	})

	sentAt := e.now()
	if err := e.storage.UpdateMany(ctx, notifications.Filter{IDs: ids}, notifications.Changes{SentAt: &sentAt}); err != nil {
		return errors.Join(ErrMarkSent, err)
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "Digest sent",
		logger.UserID(recipientID),
		logger.NotificationID(res.NotificationID),
		logger.Count(g.Count()),
		slog.Bool("success", res.Success),
	)
	return nil
}

func (e *Engine) sendEach(ctx context.Context, recipientID string, g Group) error {
	var errs []error
	for _, rec := range g.Records {
		e.sender.Send(ctx, notifications.Request{
			RecipientID: recipientID,
			Type:        rec.Type,
			Title:       rec.Title,
			Message:     rec.Message,
			Priority:    notifications.PriorityMedium,
			Data:        map[string]any{"notificationId": rec.ID},
		})

		sentAt := e.now()
		if err := e.storage.Update(ctx, notifications.Filter{IDs: []string{rec.ID}}, notifications.Changes{SentAt: &sentAt}); err != nil {
			errs = append(errs, errors.Join(ErrMarkSent, fmt.Errorf("notification %s: %w", rec.ID, err)))
		}
	}
	return errors.Join(errs...)
}
