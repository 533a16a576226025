package statemachine

import "context"

// Action runs a side effect during a transition. An error aborts the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard decides at runtime whether a transition may proceed.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Transition moves From to To on Event when every guard passes.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}
