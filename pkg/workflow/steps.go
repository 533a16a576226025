package workflow

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

const escalatedPrefix = "[ESCALATED] "

// escalationChannels bypass routing.
var escalationChannels = []notifications.Channel{
	notifications.ChannelEmail,
	notifications.ChannelSMS,
	notifications.ChannelPush,
}

// execute runs the action of step against wc and returns the recorded result.
// A panic inside the action is reported as ErrStepFailed.
func (e *Engine) execute(ctx context.Context, step Step, wc *Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic: %v", ErrStepFailed, r)
		}
	}()

	switch step.Type {
	case StepSend:
		return e.send(ctx, step, wc), nil
	case StepDelay:
		return nil, e.delay(ctx, step)
	case StepCondition:
		return evaluate(ctx, step.Condition, wc)
	case StepEscalate:
		return e.escalate(ctx, step, wc), nil
	case StepComplete:
		return nil, transition(ctx, wc, eventComplete)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepType, step.Type)
	}
}

func (e *Engine) send(ctx context.Context, step Step, wc *Context) notifications.DeliveryResult {
	cfg, _ := step.Config.(SendConfig)

	typ := cfg.Type
	if typ == "" {
		typ = notifications.TypeSystem
	}
	title := cfg.Title
	if title == "" {
		title = "Notification"
	}

	data := maps.Clone(cfg.Data)
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["workflowId"] = wc.WorkflowID
	data["stepId"] = step.ID

	return e.sender.Send(ctx, notifications.Request{
		RecipientID: wc.RecipientID,
		Type:        typ,
		Title:       title,
		Message:     cfg.Message,
		Priority:    cfg.Priority.OrDefault(),
		Channels:    cfg.Channels,
		Data:        data,
	})
}

func (e *Engine) delay(ctx context.Context, step Step) error {
	cfg, _ := step.Config.(DelayConfig)
	if cfg.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(cfg.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: delay interrupted: %w", ErrStepFailed, ctx.Err())
	}
}

// escalate raises Data["priority"] one level and sends on every channel.
func (e *Engine) escalate(ctx context.Context, step Step, wc *Context) notifications.DeliveryResult {
	cfg, _ := step.Config.(EscalateConfig)

	priority := nextPriority(wc.Data)
	if wc.Data == nil {
		wc.Data = make(map[string]any)
	}
	wc.Data["priority"] = string(priority)

	typ := cfg.Type
	if typ == "" {
		typ = notifications.TypeSystem
	}
	title := cfg.Title
	if title == "" {
		title = "Notification"
	}

	data := maps.Clone(cfg.Data)
	if data == nil {
		data = make(map[string]any, 3)
	}
	data["workflowId"] = wc.WorkflowID
	data["stepId"] = step.ID
	data["escalated"] = true

	return e.sender.Send(ctx, notifications.Request{
		RecipientID: wc.RecipientID,
		Type:        typ,
		Title:       escalatedPrefix + title,
		Message:     cfg.Message,
		Priority:    priority,
		Channels:    escalationChannels,
		Data:        data,
	})
}

// nextPriority escalates Data["priority"]. A missing value counts as medium;
// a value outside the scale restarts it at low.
func nextPriority(data map[string]any) notifications.Priority {
	var raw string
	switch v := data["priority"].(type) {
	case notifications.Priority:
		raw = string(v)
	case string:
		raw = v
	}
	if raw == "" {
		return notifications.PriorityMedium.Escalate()
	}
	p, ok := notifications.ParsePriority(raw)
	if !ok {
		return notifications.PriorityLow
	}
	return p.Escalate()
}

// evaluate runs cond; a nil predicate passes.
func evaluate(ctx context.Context, cond Condition, wc *Context) (bool, error) {
	if cond == nil {
		return true, nil
	}
	ok, err := cond(ctx, wc)
	if err != nil {
		return false, fmt.Errorf("%w: condition: %w", ErrStepFailed, err)
	}
	return ok, nil
}
