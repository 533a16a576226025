package workflow

import (
	"context"
	"errors"

	"github.com/dmitrymomot/notifyplan/pkg/statemachine"
)

type lifecycleEvent string

const (
	eventHalt     lifecycleEvent = "halt"
	eventComplete lifecycleEvent = "complete"
	eventCancel   lifecycleEvent = "cancel"
	eventExpire   lifecycleEvent = "expire"
)

// A halted instance stays in the store until it is cancelled or expires.
var lifecycle = statemachine.NewBuilder[Status, lifecycleEvent]().
	From(StatusRunning).On(eventHalt).To(StatusHalted).
	From(StatusRunning).On(eventComplete).To(StatusCompleted).
	From(StatusRunning).On(eventCancel).To(StatusCancelled).
	From(StatusHalted).On(eventCancel).To(StatusCancelled).
	From(StatusRunning).On(eventExpire).To(StatusExpired).
	From(StatusHalted).On(eventExpire).To(StatusExpired).
	Build()

// transition moves wc to the state reached on ev.
func transition(ctx context.Context, wc *Context, ev lifecycleEvent) error {
	next, err := lifecycle.Fire(ctx, wc.Status, ev, wc)
	if err != nil {
		return errors.Join(ErrInvalidTransition, err)
	}
	wc.Status = next
	return nil
}

// Terminal reports whether s is a final lifecycle state.
func (s Status) Terminal() bool {
	return lifecycle.Terminal(s)
}
