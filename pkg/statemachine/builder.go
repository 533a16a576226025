package statemachine

// Builder assembles a Table with a fluent API.
type Builder[S, E comparable] struct {
	transitions []Transition[S, E]
	pending     *Transition[S, E]
}

// NewBuilder creates an empty builder.
func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{}
}

// From starts a new transition, committing the previous one.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.commit()
	b.pending = &Transition[S, E]{From: state}
	return b
}

// On sets the event of the current transition.
func (b *Builder[S, E]) On(event E) *Builder[S, E] {
	b.ensure().Event = event
	return b
}

// To sets the target of the current transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.ensure().To = state
	return b
}

func (b *Builder[S, E]) WithGuard(guard Guard[S, E]) *Builder[S, E] {
	if guard != nil {
		p := b.ensure()
		p.Guards = append(p.Guards, guard)
	}
	return b
}

func (b *Builder[S, E]) WithAction(action Action[S, E]) *Builder[S, E] {
	if action != nil {
		p := b.ensure()
		p.Actions = append(p.Actions, action)
	}
	return b
}

// Build commits the pending transition and returns the table.
func (b *Builder[S, E]) Build() *Table[S, E] {
	b.commit()
	return NewTable(b.transitions...)
}

func (b *Builder[S, E]) ensure() *Transition[S, E] {
	if b.pending == nil {
		b.pending = &Transition[S, E]{}
	}
	return b.pending
}

func (b *Builder[S, E]) commit() {
	if b.pending != nil {
		b.transitions = append(b.transitions, *b.pending)
		b.pending = nil
	}
}
