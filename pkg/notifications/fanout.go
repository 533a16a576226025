package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/async"
	"github.com/dmitrymomot/notifyplan/pkg/logger"
)

// MaxSMSLength is the number of characters an SMS body is truncated to.
const MaxSMSLength = 160

const defaultDisplayName = "User"

// Dispatcher delivers one notification to a set of channels concurrently.
// A failing channel never affects the others.
type Dispatcher struct {
	directory UserDirectory
	email     EmailTransport
	sms       SMSTransport
	push      PushTransport
	inapp     InAppPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// Dispatch sends req on every channel and returns one outcome per channel, in
// the order of channels. rec is the already persisted record.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, req Request, rec Record) []ChannelOutcome {
	// All channels share one directory lookup.
	contact := sync.OnceValues(func() (*Contact, error) {
		if d.directory == nil {
			return nil, nil
		}
		return d.directory.FindUser(ctx, req.RecipientID)
	})

	futures := make([]*async.Future[struct{}], len(channels))
	for i, ch := range channels {
		futures[i] = async.Async(ctx, ch, func(ctx context.Context, ch Channel) (struct{}, error) {
			return struct{}{}, d.deliver(ctx, ch, req, rec, contact)
		})
	}

	outcomes := make([]ChannelOutcome, len(channels))
	for i, res := range async.Settle(futures...) {
		outcomes[i] = ChannelOutcome{Channel: channels[i], Success: res.OK()}
		if res.Err != nil {
			outcomes[i].Error = res.Err.Error()
			d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to deliver notification on channel",
				logger.NotificationID(rec.ID),
				logger.UserID(req.RecipientID),
				logger.Channel(channels[i]),
				logger.Error(res.Err),
			)
		}
	}
	return outcomes
}

type contactFunc func() (*Contact, error)

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, req Request, rec Record, contact contactFunc) error {
	switch ch {
	case ChannelEmail:
		return d.sendEmail(ctx, req, contact)
	case ChannelSMS:
		return d.sendSMS(ctx, req, contact)
	case ChannelPush:
		return d.sendPush(ctx, req, rec, contact)
	case ChannelInApp:
		d.publishInApp(ctx, rec)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedChannel, ch)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, req Request, contact contactFunc) error {
	if d.email == nil {
		return fmt.Errorf("%w: email transport is not configured", ErrChannelDeliveryFailed)
	}
	c, err := contact()
	if err != nil {
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	if c == nil || c.Email == "" {
		return fmt.Errorf("%w: user email not found", ErrRecipientUnreachable)
	}

	name := c.DisplayName
	if name == "" {
		name = defaultDisplayName
	}

	var out Outcome
	switch req.Type {
	case TypeBillDue:
		out, err = d.email.SendBillReminder(ctx, c.Email, name, BillReminder{
			Title:   req.Title,
			Amount:  numberFrom(req.Data["amount"]),
			DueDate: timeFrom(req.Data["dueDate"], d.now()),
		})
	case TypeAchievement:
		out, err = d.email.SendMotivational(ctx, c.Email, name, Achievement{
			Title:       req.Title,
			Description: req.Message,
		})
	default:
		out, err = d.email.SendGeneric(ctx, c.Email, req.Title, req.Message)
	}
	return transportError(out.Success, out.Error, err)
}

func (d *Dispatcher) sendSMS(ctx context.Context, req Request, contact contactFunc) error {
	if d.sms == nil {
		return fmt.Errorf("%w: sms transport is not configured", ErrChannelDeliveryFailed)
	}
	c, err := contact()
	if err != nil {
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	if c == nil || c.Phone == "" {
		return fmt.Errorf("%w: user phone not found", ErrRecipientUnreachable)
	}

	out, err := d.sms.Send(ctx, c.Phone, FormatSMS(req.Title, req.Message))
	return transportError(out.Success, out.Error, err)
}

func (d *Dispatcher) sendPush(ctx context.Context, req Request, rec Record, contact contactFunc) error {
	if d.push == nil {
		// Push is optional; without a transport the channel is a no-op.
		return nil
	}
	c, err := contact()
	if err != nil {
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	if c == nil || c.PushSubscription == nil {
		return fmt.Errorf("%w: user push subscription not found", ErrRecipientUnreachable)
	}

	data := map[string]any{
		"type":           string(req.Type),
		"notificationId": rec.ID,
	}
	maps.Copy(data, req.Data)

	out, err := d.push.Send(ctx, *c.PushSubscription, PushPayload{
		Title: req.Title,
		Body:  req.Message,
		Icon:  stringFrom(req.Data["icon"]),
		Badge: stringFrom(req.Data["badge"]),
		Data:  data,
	})
	return transportError(out.Success, out.Error, err)
}

func (d *Dispatcher) publishInApp(ctx context.Context, rec Record) {
	if d.inapp == nil {
		return
	}
	if err := d.inapp.Publish(ctx, rec); err != nil {
		// The stored record already satisfies in-app delivery.
		d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to publish in-app notification",
			logger.NotificationID(rec.ID),
			logger.UserID(rec.RecipientID),
			logger.Error(err),
		)
	}
}

// FormatSMS joins title and message and truncates to MaxSMSLength characters.
func FormatSMS(title, message string) string {
	r := []rune(title + ": " + message)
	if len(r) > MaxSMSLength {
		r = r[:MaxSMSLength]
	}
	return string(r)
}

func transportError(success bool, msg string, err error) error {
	if err != nil {
		if errors.Is(err, ErrChannelDeliveryFailed) {
			return err
		}
		return errors.Join(ErrChannelDeliveryFailed, err)
	}
	if !success {
		if msg == "" {
			msg = "transport reported failure"
		}
		return fmt.Errorf("%w: %s", ErrChannelDeliveryFailed, msg)
	}
	return nil
}

func numberFrom(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func timeFrom(v any, fallback time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return s
}
