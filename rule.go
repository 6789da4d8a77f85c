package hfsm

// Decider computes the destination of a dynamic rule from the trigger argument.
type Decider[TState comparable] func(args any) (TState, error)

// rule is a transition rule registered on a state node for one trigger.
// It is either a staticRule or a dynamicRule.
type rule[TState, TTrigger comparable] interface {
	guard() TransitionGuard[TTrigger]
	destination(args any) (TState, error)
}

// staticRule always leads to a fixed destination.
type staticRule[TState, TTrigger comparable] struct {
	next   TState
	guards TransitionGuard[TTrigger]
}

func (r staticRule[TState, TTrigger]) guard() TransitionGuard[TTrigger] {
	return r.guards
}

func (r staticRule[TState, TTrigger]) destination(any) (TState, error) {
	return r.next, nil
}

// dynamicRule asks its decider for the destination.
type dynamicRule[TState, TTrigger comparable] struct {
	decider Decider[TState]
	guards  TransitionGuard[TTrigger]
}

func (r dynamicRule[TState, TTrigger]) guard() TransitionGuard[TTrigger] {
	return r.guards
}

func (r dynamicRule[TState, TTrigger]) destination(args any) (TState, error) {
	return r.decider(args)
}

// TypedDecider converts a decider over a typed argument into a Decider.
// An argument of another type is reported as an *ArgumentError.
func TypedDecider[TState comparable, TArgs any](decider func(args TArgs) (TState, error)) Decider[TState] {
	return func(args any) (TState, error) {
		typed, err := castArgs[TArgs](args)
		if err != nil {
			var zero TState
			return zero, err
		}
		return decider(typed)
	}
}
