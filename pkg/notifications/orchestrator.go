package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
)

// Sender is the contract consumed by the digest and workflow engines.
type Sender interface {
	Send(ctx context.Context, req Request) DeliveryResult
}

// Orchestrator resolves preferences, routes, persists and fans out a notification.
type Orchestrator struct {
	storage     Storage
	preferences *PreferenceResolver
	dispatcher  *Dispatcher
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	push   PushTransport
	inapp  InAppPublisher
	logger *slog.Logger
	now    func() time.Time
}

// WithPushTransport enables the push channel.
func WithPushTransport(push PushTransport) Option {
	return func(o *options) { o.push = push }
}

// WithInAppPublisher publishes created records to live subscribers.
func WithInAppPublisher(p InAppPublisher) Option {
	return func(o *options) { o.inapp = p }
}

// WithLogger sets the logger for the orchestrator and its dispatcher.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = logger.Contextual(log)
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator bound to one set of collaborators.
// Prefer one instance per tenant over the shared instance.
func New(storage Storage, directory UserDirectory, email EmailTransport, sms SMSTransport, opts ...Option) *Orchestrator {
	o := &options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &Orchestrator{
		storage:     storage,
		preferences: NewPreferenceResolver(directory, o.logger),
		dispatcher: &Dispatcher{
			directory: directory,
			email:     email,
			sms:       sms,
			push:      o.push,
			inapp:     o.inapp,
			logger:    o.logger,
			now:       o.now,
		},
		logger: o.logger,
		now:    o.now,
	}
}

// Send delivers req and always returns a result. Channel failures are
// reported in the outcomes; storage failures yield an unsuccessful result.
func (o *Orchestrator) Send(ctx context.Context, req Request) (result DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.LogAttrs(ctx, slog.LevelError, "Panic while orchestrating notification",
				logger.UserID(req.RecipientID),
				logger.Error(fmt.Errorf("%v", r)),
			)
			result = DeliveryResult{Success: false}
		}
	}()

	channels := o.Channels(ctx, req)

	now := o.now()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}

	rec, err := o.storage.Create(ctx, Record{
		RecipientID:    req.RecipientID,
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		Type:           req.Type,
		Title:          req.Title,
		Message:        req.Message,
		Priority:       req.Priority.OrDefault(),
		Data:           maps.Clone(req.Data),
		ScheduledAt:    scheduledAt,
		ExpiresAt:      req.ExpiresAt,
		CreatedAt:      now,
	})
	if err != nil {
		o.logger.LogAttrs(ctx, slog.LevelError, "Failed to store notification",
			logger.UserID(req.RecipientID),
			logger.NotificationType(req.Type),
			logger.Error(err),
		)
		return DeliveryResult{Success: false}
	}

	outcomes := o.dispatcher.Dispatch(ctx, channels, req, rec)

	result = DeliveryResult{Outcomes: outcomes, NotificationID: rec.ID}
	result.Success = slices.ContainsFunc(outcomes, func(c ChannelOutcome) bool { return c.Success })

	if result.Success {
		sentAt := o.now()
		if err := o.storage.UpdateMany(ctx, Filter{IDs: []string{rec.ID}}, Changes{SentAt: &sentAt}); err != nil {
			o.logger.LogAttrs(ctx, slog.LevelError, "Failed to mark notification as sent",
				logger.NotificationID(rec.ID),
				logger.UserID(req.RecipientID),
				logger.Error(err),
			)
		}
	}

	o.logger.LogAttrs(ctx, slog.LevelDebug, "Notification orchestrated",
		logger.NotificationID(rec.ID),
		logger.UserID(req.RecipientID),
		logger.Channels(channels),
		slog.Bool("success", result.Success),
	)

	return result
}

// Channels returns the channels Send would use for req.
func (o *Orchestrator) Channels(ctx context.Context, req Request) []Channel {
	if len(req.Channels) > 0 {
		return slices.Clone(req.Channels)
	}
	prefs := o.preferences.Resolve(ctx, req.RecipientID)
	return Route(req.Type, req.Priority, prefs)
}

// Storage returns the underlying notification storage.
func (o *Orchestrator) Storage() Storage {
	return o.storage
}
