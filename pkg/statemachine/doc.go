// Package statemachine implements generic finite state machines.
//
// A Table is an immutable set of transitions keyed by (state, event) with
// optional guards and actions. Because a Table carries no current state it can
// validate transitions of entities that are stored elsewhere:
//
//	type Status string
//	type Event string
//
//	lifecycle := statemachine.NewTable(
//	    statemachine.Transition[Status, Event]{From: "running", Event: "halt", To: "halted"},
//	    statemachine.Transition[Status, Event]{From: "running", Event: "complete", To: "completed"},
//	)
//
//	next, err := lifecycle.Fire(ctx, ctx.Status, "halt", nil)
//
// Builder offers a fluent way to assemble tables:
//
//	lifecycle := statemachine.NewBuilder[Status, Event]().
//	    From("running").On("halt").To("halted").
//	    Build()
//
// Fire returns *ErrNoTransitionAvailable when nothing is defined for the
// pair and *ErrTransitionRejected when guards veto every candidate. Use
// IsNoTransitionAvailableError and IsTransitionRejectedError to tell them apart.
package statemachine
