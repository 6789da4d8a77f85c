package hfsm

// GuardFunc is a guard predicate. It receives the fired trigger and its
// argument and reports whether the rule may be taken.
type GuardFunc[TTrigger comparable] func(trigger TTrigger, args any) bool

// Guard is a tagged guard condition attached to a rule.
// The tag is reported back when the guard rejects a transition.
type Guard[TTrigger comparable] struct {
	Tag       string
	Predicate GuardFunc[TTrigger]
}

// NewGuard creates a guard from a tag and a predicate.
func NewGuard[TTrigger comparable](tag string, predicate GuardFunc[TTrigger]) Guard[TTrigger] {
	return Guard[TTrigger]{Tag: tag, Predicate: predicate}
}

// IsMet returns true if the guard passes. A guard without predicate always passes.
func (g Guard[TTrigger]) IsMet(trigger TTrigger, args any) bool {
	if g.Predicate == nil {
		return true
	}
	return g.Predicate(trigger, args)
}

// TransitionGuard is the ordered list of guards of a single rule.
type TransitionGuard[TTrigger comparable] struct {
	Conditions []Guard[TTrigger]
}

// NewTransitionGuard copies guards into a TransitionGuard.
func NewTransitionGuard[TTrigger comparable](guards ...Guard[TTrigger]) TransitionGuard[TTrigger] {
	if len(guards) == 0 {
		return TransitionGuard[TTrigger]{}
	}
	conditions := make([]Guard[TTrigger], len(guards))
	copy(conditions, guards)
	return TransitionGuard[TTrigger]{Conditions: conditions}
}

// Evaluate runs the guards in registration order and stops at the first one
// that fails. It returns the tag of that guard and false, or "" and true when
// every guard passes.
func (tg TransitionGuard[TTrigger]) Evaluate(trigger TTrigger, args any) (string, bool) {
	for _, c := range tg.Conditions {
		if !c.IsMet(trigger, args) {
			return c.Tag, false
		}
	}
	return "", true
}

// Tags returns the tags of all guards in registration order.
func (tg TransitionGuard[TTrigger]) Tags() []string {
	if len(tg.Conditions) == 0 {
		return nil
	}
	tags := make([]string, len(tg.Conditions))
	for i, c := range tg.Conditions {
		tags[i] = c.Tag
	}
	return tags
}

// IsEmpty returns true if the guard list has no conditions.
func (tg TransitionGuard[TTrigger]) IsEmpty() bool {
	return len(tg.Conditions) == 0
}

// TypedGuard converts a guard over a typed argument into a Guard.
// An argument of another type fails the guard.
func TypedGuard[TTrigger comparable, TArgs any](tag string, guard func(trigger TTrigger, args TArgs) bool) Guard[TTrigger] {
	return NewGuard(tag, func(trigger TTrigger, args any) bool {
		typed, ok := args.(TArgs)
		if !ok {
			if args != nil {
				return false
			}
			var zero TArgs
			typed = zero
		}
		return guard(trigger, typed)
	})
}
