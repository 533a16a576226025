package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/notifyplan/pkg/email/templates"
	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Transport renders notification templates and sends them through an
// EmailSender.
type Transport struct {
	sender  EmailSender
	appName string
	logger  *slog.Logger
}

var _ notifications.EmailTransport = (*Transport)(nil)

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithAppName sets the name shown in the template footer.
func WithAppName(name string) TransportOption {
	return func(t *Transport) {
		if name != "" {
			t.appName = name
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(log *slog.Logger) TransportOption {
	return func(t *Transport) {
		if log != nil {
			t.logger = logger.Contextual(log)
		}
	}
}

// NewTransport creates an email transport on sender.
func NewTransport(sender EmailSender, opts ...TransportOption) *Transport {
	t := &Transport{sender: sender, appName: "Notifyplan", logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) SendGeneric(ctx context.Context, to, subject, body string) (notifications.Outcome, error) {
	return t.send(ctx, to, subject, "generic", templates.Generic(subject, body))
}

func (t *Transport) SendBillReminder(ctx context.Context, to, name string, bill notifications.BillReminder) (notifications.Outcome, error) {
	return t.send(ctx, to, bill.Title, "bill_reminder", templates.BillReminder(name, bill))
}

func (t *Transport) SendMotivational(ctx context.Context, to, name string, achievement notifications.Achievement) (notifications.Outcome, error) {
	return t.send(ctx, to, achievement.Title, "motivational", templates.Motivational(name, achievement))
}

func (t *Transport) send(ctx context.Context, to, subject, tag string, content templ.Component) (notifications.Outcome, error) {
	html, err := templates.Render(ctx, templates.Layout(t.appName, subject, content))
	if err != nil {
		err = errors.Join(ErrRenderTemplate, err)
		return notifications.Outcome{Error: err.Error()}, err
	}

	if err := t.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: html,
		Tag:      tag,
	}); err != nil {
		t.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to send email",
			slog.String("tag", tag),
			logger.Error(err),
		)
		return notifications.Outcome{Error: err.Error()}, err
	}
	return notifications.Outcome{Success: true}, nil
}
