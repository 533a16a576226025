package statemachine

import (
	"context"
	"fmt"
)

// Table is an immutable transition table. It carries no current state, so one
// Table can validate the lifecycle of many independently stored entities.
type Table[S, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// NewTable indexes transitions by state and event. Several transitions for
// the same pair are tried in order; the first whose guards pass wins.
func NewTable[S, E comparable](transitions ...Transition[S, E]) *Table[S, E] {
	t := &Table[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
	for _, tr := range transitions {
		byEvent, ok := t.transitions[tr.From]
		if !ok {
			byEvent = make(map[E][]Transition[S, E])
			t.transitions[tr.From] = byEvent
		}
		byEvent[tr.Event] = append(byEvent[tr.Event], tr)
	}
	return t
}

// Fire returns the state reached from `from` on event, running the matching
// transition's actions.
func (t *Table[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	tr, err := t.find(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range tr.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return tr.To, nil
}

// CanFire reports whether event is accepted in state from.
func (t *Table[S, E]) CanFire(ctx context.Context, from S, event E, data any) bool {
	_, err := t.find(ctx, from, event, data)
	return err == nil
}

// Terminal reports whether no transition leaves s.
func (t *Table[S, E]) Terminal(s S) bool {
	return len(t.transitions[s]) == 0
}

func (t *Table[S, E]) find(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		return nil, &ErrNoTransitionAvailable{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i], from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &ErrTransitionRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}

func guardsPass[S, E comparable](ctx context.Context, tr Transition[S, E], from S, event E, data any) bool {
	for _, guard := range tr.Guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
