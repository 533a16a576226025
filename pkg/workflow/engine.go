package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/notifyplan/pkg/async"
	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Observer is called with a copy of an instance when a drive ends with the
// instance completed or halted.
type Observer func(ctx context.Context, wc *Context)

// Engine drives workflow instances through their step graphs.
type Engine struct {
	sender   notifications.Sender
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	cfg      Config
	observer Observer

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore replaces the default MemoryStore.
func WithStore(s Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
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

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithIDGenerator overrides the workflow id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithObserver registers fn to be told about finished drives.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}

// New creates an engine sending through sender, usually a
// *notifications.Orchestrator.
func New(sender notifications.Sender, opts ...Option) *Engine {
	e := &Engine{
		sender: sender,
		store:  NewMemoryStore(),
		logger: slog.Default(),
		now:    time.Now,
		cfg:    DefaultConfig(),
	}
	e.newID = func() string { return newWorkflowID(e.now()) }
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOption customizes a single instance.
type StartOption func(*Context)

// WithData seeds the instance data, e.g. an initial "priority".
func WithData(data map[string]any) StartOption {
	return func(wc *Context) {
		for k, v := range data {
			wc.Data[k] = cloneValue(v)
		}
	}
}

// Start creates an instance of def for recipientID and drives it until it
// completes or halts. Step failures are recorded in the history and never
// returned; only invalid definitions and store failures are.
func (e *Engine) Start(ctx context.Context, recipientID string, def Definition, opts ...StartOption) (string, error) {
	wc, err := e.create(ctx, recipientID, def, opts)
	if err != nil {
		return "", err
	}
	e.drive(ctx, def, wc)
	return wc.WorkflowID, nil
}

// Launch is Start with the drive running in its own goroutine. The future
// resolves to the final state of the instance, to nil when it was removed
// while running, or to ctx.Err() when ctx was done before the drive began.
func (e *Engine) Launch(ctx context.Context, recipientID string, def Definition, opts ...StartOption) (string, *async.Future[*Context], error) {
	wc, err := e.create(ctx, recipientID, def, opts)
	if err != nil {
		return "", nil, err
	}
	future := async.Async(ctx, wc, func(ctx context.Context, wc *Context) (*Context, error) {
		return e.drive(ctx, def, wc), nil
	})
	return wc.WorkflowID, future, nil
}

// Status returns a copy of the instance or ErrWorkflowNotFound.
func (e *Engine) Status(ctx context.Context, id string) (*Context, error) {
	return e.store.Get(ctx, id)
}

// Cancel removes an instance and reports whether it existed. A step that is
// executing keeps running, but no further step is scheduled.
func (e *Engine) Cancel(ctx context.Context, id string) bool {
	wc, err := e.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrWorkflowNotFound) {
			e.logger.LogAttrs(ctx, slog.LevelError, "Failed to load workflow for cancellation",
				logger.WorkflowID(id),
				logger.Error(err),
			)
		}
		return false
	}

	if err := transition(ctx, wc, eventCancel); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "Cancelling workflow in unexpected state",
			logger.WorkflowID(id),
			slog.String("status", string(wc.Status)),
			logger.Error(err),
		)
	}

	removed, err := e.store.Delete(ctx, id)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "Failed to cancel workflow",
			logger.WorkflowID(id),
			logger.Error(err),
		)
		return false
	}
	if removed {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "Workflow cancelled", logger.WorkflowID(id))
	}
	return removed
}

func (e *Engine) create(ctx context.Context, recipientID string, def Definition, opts []StartOption) (*Context, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: empty recipient id", ErrInvalidDefinition)
	}
	if err := Validate(def); err != nil {
		return nil, err
	}

	now := e.now()
	wc := &Context{
		WorkflowID:   e.newID(),
		DefinitionID: def.ID,
		RecipientID:  recipientID,
		Status:       StatusRunning,
		Data:         make(map[string]any),
		History:      []StepHistory{},
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if len(def.Steps) > 0 {
		wc.CurrentStepID = def.Steps[0].ID
	}
	for _, opt := range opts {
		opt(wc)
	}

	if err := e.store.Save(ctx, wc); err != nil {
		return nil, err
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "Workflow started",
		logger.WorkflowID(wc.WorkflowID),
		logger.UserID(recipientID),
		slog.String("definition_id", def.ID),
	)
	return wc, nil
}

// drive executes steps one at a time until the instance leaves the running
// state. It returns the final state, or nil when the instance was removed by
// someone else while a step was executing. Every write goes through
// Store.Update, so a cancelled or swept instance is never written back.
func (e *Engine) drive(ctx context.Context, def Definition, wc *Context) *Context {
	steps := make(map[string]Step, len(def.Steps))
	for _, s := range def.Steps {
		steps[s.ID] = s
	}
	// Persistence outlives the caller's context so a cancelled delay is
	// still recorded.
	storeCtx := context.WithoutCancel(ctx)

	step, ok := steps[wc.CurrentStepID]
	if !ok {
		return e.halt(storeCtx, wc, "no steps")
	}

	for {
		result, err := e.execute(logger.ContextWithWorkflow(ctx, wc.WorkflowID, step.ID), step, wc)
		entry := StepHistory{
			StepID:     step.ID,
			StepType:   step.Type,
			ExecutedAt: e.now(),
			Success:    err == nil,
			Result:     result,
		}
		if err != nil {
			entry.Error = err.Error()
			e.logger.LogAttrs(ctx, slog.LevelWarn, "Workflow step failed",
				logger.WorkflowID(wc.WorkflowID),
				logger.StepID(step.ID),
				logger.StepType(step.Type),
				logger.Error(err),
			)
		}
		wc.History = append(wc.History, entry)
		wc.UpdatedAt = entry.ExecutedAt

		if wc.Status == StatusCompleted {
			return e.finish(storeCtx, wc)
		}
		if err != nil {
			return e.halt(storeCtx, wc, "step failed")
		}

		wc.CurrentStepID = step.NextStepID
		next, ok := steps[step.NextStepID]
		if !ok {
			reason := "no next step"
			if step.NextStepID != "" {
				reason = "unknown next step"
			}
			return e.halt(storeCtx, wc, reason)
		}

		pass, cerr := evaluate(ctx, step.Condition, wc)
		if cerr != nil || !pass {
			return e.halt(storeCtx, wc, "edge condition not met")
		}

		if err := e.store.Update(storeCtx, wc); err != nil {
			if errors.Is(err, ErrWorkflowNotFound) {
				e.removed(ctx, wc, step)
				return nil
			}
			e.logger.LogAttrs(ctx, slog.LevelError, "Failed to save workflow",
				logger.WorkflowID(wc.WorkflowID),
				logger.Error(err),
			)
			return wc.Clone()
		}
		step = next
	}
}

func (e *Engine) removed(ctx context.Context, wc *Context, step Step) {
	e.logger.LogAttrs(ctx, slog.LevelDebug, "Workflow removed while running",
		logger.WorkflowID(wc.WorkflowID),
		logger.StepID(step.ID),
	)
}

func (e *Engine) halt(ctx context.Context, wc *Context, reason string) *Context {
	if err := transition(ctx, wc, eventHalt); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "Failed to halt workflow",
			logger.WorkflowID(wc.WorkflowID),
			logger.Error(err),
		)
	}
	if err := e.store.Update(ctx, wc); err != nil {
		if errors.Is(err, ErrWorkflowNotFound) {
			e.logger.LogAttrs(ctx, slog.LevelDebug, "Workflow removed before halting",
				logger.WorkflowID(wc.WorkflowID),
			)
			return nil
		}
		e.logger.LogAttrs(ctx, slog.LevelError, "Failed to save halted workflow",
			logger.WorkflowID(wc.WorkflowID),
			logger.Error(err),
		)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "Workflow halted",
		logger.WorkflowID(wc.WorkflowID),
		logger.StepID(wc.CurrentStepID),
		slog.String("reason", reason),
	)
	e.notify(ctx, wc)
	return wc.Clone()
}

func (e *Engine) finish(ctx context.Context, wc *Context) *Context {
	removed, err := e.store.Delete(ctx, wc.WorkflowID)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "Failed to remove completed workflow",
			logger.WorkflowID(wc.WorkflowID),
			logger.Error(err),
		)
	} else if !removed {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "Workflow removed before completing",
			logger.WorkflowID(wc.WorkflowID),
		)
		return nil
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "Workflow completed",
		logger.WorkflowID(wc.WorkflowID),
		logger.Count(len(wc.History)),
	)
	e.notify(ctx, wc)
	return wc.Clone()
}

func (e *Engine) notify(ctx context.Context, wc *Context) {
	if e.observer != nil {
		e.observer(ctx, wc.Clone())
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newWorkflowID returns workflow_<unixMillis>_<9 base36 chars>.
func newWorkflowID(now time.Time) string {
	raw := uuid.New()
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[int(raw[i])%len(idAlphabet)]
	}
	return "workflow_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}
