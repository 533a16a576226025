package notifications

import (
	"context"
	"time"
)

// Outcome is what a transport reports for a single send.
type Outcome struct {
	Success bool
	Error   string
}

// SMSOutcome is an Outcome with the gateway's message id.
type SMSOutcome struct {
	Success   bool
	Error     string
	MessageID string
}

// BillReminder is the payload of the bill reminder email template.
type BillReminder struct {
	Title   string
	Amount  float64
	DueDate time.Time
}

// Achievement is the payload of the motivational email template.
type Achievement struct {
	Title       string
	Description string
}

// EmailTransport sends templated emails.
type EmailTransport interface {
	SendGeneric(ctx context.Context, to, subject, body string) (Outcome, error)
	SendBillReminder(ctx context.Context, to, name string, bill BillReminder) (Outcome, error)
	SendMotivational(ctx context.Context, to, name string, achievement Achievement) (Outcome, error)
}

// SMSTransport sends text messages.
type SMSTransport interface {
	Send(ctx context.Context, to, message string) (SMSOutcome, error)
}

// PushPayload is the content of a push notification.
type PushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// PushTransport sends push notifications. Optional.
type PushTransport interface {
	Send(ctx context.Context, sub PushSubscription, payload PushPayload) (Outcome, error)
}

// InAppPublisher pushes freshly created records to live subscribers. Optional.
type InAppPublisher interface {
	Publish(ctx context.Context, rec Record) error
}
