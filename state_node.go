package hfsm

import (
	"fmt"

	"go.uber.org/zap"
)

// EntryFunc is a common entry callback. It runs whenever its state is entered
// and receives the state that was active before the transition.
type EntryFunc[TState comparable] func(previous TState) error

// EntryFromFunc is an entry callback bound to one trigger. It receives the
// trigger argument and the previously active state.
type EntryFromFunc[TState comparable] func(args any, previous TState) error

// TypedEntryFrom converts an entry callback over a typed argument into an
// EntryFromFunc. An argument of another type is reported as an *ArgumentError.
func TypedEntryFrom[TState comparable, TArgs any](fn func(args TArgs, previous TState) error) EntryFromFunc[TState] {
	return func(args any, previous TState) error {
		typed, err := castArgs[TArgs](args)
		if err != nil {
			return err
		}
		return fn(typed, previous)
	}
}

// StateNode owns the transition rules and entry callbacks of one state and
// its position in the state tree. Nodes are created by Machine.CreateState.
type StateNode[TState, TTrigger comparable] struct {
	machine *Machine[TState, TTrigger]
	link    *TreeLink[TState]

	// parent is the node of link.parent.
	parent *StateNode[TState, TTrigger]

	staticRules  map[TTrigger]staticRule[TState, TTrigger]
	dynamicRules map[TTrigger]dynamicRule[TState, TTrigger]

	entry     EntryFunc[TState]
	entryFrom map[TTrigger]EntryFromFunc[TState]
}

func newStateNode[TState, TTrigger comparable](m *Machine[TState, TTrigger], tag TState) *StateNode[TState, TTrigger] {
	return &StateNode[TState, TTrigger]{
		machine:      m,
		link:         NewTreeLink(tag),
		staticRules:  make(map[TTrigger]staticRule[TState, TTrigger]),
		dynamicRules: make(map[TTrigger]dynamicRule[TState, TTrigger]),
		entryFrom:    make(map[TTrigger]EntryFromFunc[TState]),
	}
}

// State returns the tag of this node.
func (n *StateNode[TState, TTrigger]) State() TState {
	return n.link.tag
}

// Link returns the tree link of this node.
func (n *StateNode[TState, TTrigger]) Link() *TreeLink[TState] {
	return n.link
}

// Superstate returns the parent node, or nil for a root.
func (n *StateNode[TState, TTrigger]) Superstate() *StateNode[TState, TTrigger] {
	return n.parent
}

// Permit registers a static rule: firing trigger while this state (or one of
// its substates without its own rule) is active leads to next. A previous
// static rule for the same trigger is replaced.
func (n *StateNode[TState, TTrigger]) Permit(trigger TTrigger, next TState, guards ...Guard[TTrigger]) *StateNode[TState, TTrigger] {
	n.staticRules[trigger] = staticRule[TState, TTrigger]{
		next:   next,
		guards: NewTransitionGuard(guards...),
	}
	return n
}

// PermitDynamic registers a rule whose destination is computed by decider
// from the trigger argument. A dynamic rule takes precedence over a static
// rule for the same trigger on the same node.
func (n *StateNode[TState, TTrigger]) PermitDynamic(trigger TTrigger, decider Decider[TState], guards ...Guard[TTrigger]) *StateNode[TState, TTrigger] {
	if decider == nil {
		panic(&ArgumentError{ParamName: "decider", Message: "decider cannot be nil"})
	}
	n.dynamicRules[trigger] = dynamicRule[TState, TTrigger]{
		decider: decider,
		guards:  NewTransitionGuard(guards...),
	}
	return n
}

// OnEntryFrom registers a callback invoked when this state is entered, or
// passed through on the way up from an entered substate, because of trigger.
func (n *StateNode[TState, TTrigger]) OnEntryFrom(trigger TTrigger, fn EntryFromFunc[TState]) *StateNode[TState, TTrigger] {
	n.entryFrom[trigger] = fn
	return n
}

// OnEntry sets the common entry callback, invoked for every trigger.
// Only one common callback is kept; the last registration wins.
func (n *StateNode[TState, TTrigger]) OnEntry(fn EntryFunc[TState]) *StateNode[TState, TTrigger] {
	n.entry = fn
	return n
}

// SubstateOf makes this state a child of superstate. The superstate is
// created if needed. A state can be given a parent only once.
func (n *StateNode[TState, TTrigger]) SubstateOf(superstate TState) *StateNode[TState, TTrigger] {
	if n.parent != nil {
		configPanic("state '%v' is already a substate of '%v'", n.State(), n.parent.State())
	}
	parent := n.machine.CreateState(superstate)
	if parent.IsActiveIn(n.State()) {
		configPanic("circular superstate relationship detected: %v -> %v", n.State(), superstate)
	}

	n.parent = parent
	parent.link.attach(n.link)
	n.machine.removeRoot(n.State())
	return n
}

// HasRule reports whether this node itself has a rule for trigger.
func (n *StateNode[TState, TTrigger]) HasRule(trigger TTrigger) bool {
	return n.localRule(trigger) != nil
}

func (n *StateNode[TState, TTrigger]) localRule(trigger TTrigger) rule[TState, TTrigger] {
	if r, ok := n.dynamicRules[trigger]; ok {
		return r
	}
	if r, ok := n.staticRules[trigger]; ok {
		return r
	}
	return nil
}

// Decide resolves trigger to a destination without running any callback.
// The lookup walks up the hierarchy only while a node has no rule at all for
// trigger; a rule rejected by its guard ends the search. Failures are
// returned as *TransitionError.
func (n *StateNode[TState, TTrigger]) Decide(trigger TTrigger, args any) (TState, error) {
	d := n.decide(trigger, args)
	if d.err != nil {
		return d.next, d.err
	}
	return d.next, nil
}

func (n *StateNode[TState, TTrigger]) decide(trigger TTrigger, args any) decision[TState] {
	for node := n; node != nil; node = node.parent {
		r := node.localRule(trigger)
		if r == nil {
			continue
		}
		if tag, ok := r.guard().Evaluate(trigger, args); !ok {
			return decision[TState]{err: &TransitionError{
				Kind:        NoTransition,
				FailedGuard: tag,
				State:       n.State(),
				Trigger:     trigger,
			}}
		}
		next, err := r.destination(args)
		if err != nil {
			return decision[TState]{err: &TransitionError{
				Kind:    OtherError,
				Err:     err,
				State:   n.State(),
				Trigger: trigger,
			}}
		}
		return decision[TState]{next: next}
	}
	return decision[TState]{err: &TransitionError{
		Kind:    NoTransition,
		State:   n.State(),
		Trigger: trigger,
	}}
}

// enter runs entry callbacks from this node up to its root. For each node the
// common callback runs first, then the callback bound to trigger. The walk
// stops at the first error; callbacks already run are not undone.
func (n *StateNode[TState, TTrigger]) enter(trigger TTrigger, args any, previous TState, trace *[]TState) (int, error) {
	log := n.machine.logger
	visited := 0
	for node := n; node != nil; node = node.parent {
		visited++
		if trace != nil {
			*trace = append(*trace, node.State())
		}
		if node.entry != nil {
			if err := node.entry(previous); err != nil {
				log.Warn("entry callback failed",
					zap.Any("state", node.State()), zap.Any("previous", previous), zap.Error(err))
				return visited, err
			}
		}
		if fn, ok := node.entryFrom[trigger]; ok && fn != nil {
			if err := fn(args, previous); err != nil {
				log.Warn("trigger entry callback failed",
					zap.Any("state", node.State()), zap.Any("trigger", trigger), zap.Error(err))
				return visited, err
			}
		}
		log.Debug("entered state", zap.Any("state", node.State()), zap.Any("trigger", trigger))
	}
	return visited, nil
}

// IsActiveIn returns true if this state is tag or a substate of it.
func (n *StateNode[TState, TTrigger]) IsActiveIn(tag TState) bool {
	if n.State() == tag {
		return true
	}
	if n.parent != nil {
		return n.parent.IsActiveIn(tag)
	}
	return false
}

// ContainsAllSubstates returns true if every tag appears in the subtree below
// this node. The tree is searched one level at a time and the search stops
// as soon as all tags are found.
func (n *StateNode[TState, TTrigger]) ContainsAllSubstates(tags ...TState) bool {
	remaining := make(map[TState]struct{}, len(tags))
	for _, tag := range tags {
		remaining[tag] = struct{}{}
	}

	level := n.link.children
	for len(level) > 0 && len(remaining) > 0 {
		var next []*TreeLink[TState]
		for _, child := range level {
			delete(remaining, child.tag)
			next = append(next, child.children...)
		}
		level = next
	}
	return len(remaining) == 0
}

// permittedTriggers collects triggers whose nearest rule passes its guards.
func (n *StateNode[TState, TTrigger]) permittedTriggers(args any) []TTrigger {
	seen := make(map[TTrigger]struct{})
	var result []TTrigger
	for node := n; node != nil; node = node.parent {
		for _, trigger := range node.triggers() {
			if _, done := seen[trigger]; done {
				continue
			}
			seen[trigger] = struct{}{}
			if _, ok := node.localRule(trigger).guard().Evaluate(trigger, args); ok {
				result = append(result, trigger)
			}
		}
	}
	return result
}

func (n *StateNode[TState, TTrigger]) triggers() []TTrigger {
	result := make([]TTrigger, 0, len(n.dynamicRules)+len(n.staticRules))
	for trigger := range n.dynamicRules {
		result = append(result, trigger)
	}
	for trigger := range n.staticRules {
		if _, dup := n.dynamicRules[trigger]; !dup {
			result = append(result, trigger)
		}
	}
	return result
}

// String returns the state tag.
func (n *StateNode[TState, TTrigger]) String() string {
	return fmt.Sprintf("%v", n.State())
}
