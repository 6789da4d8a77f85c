package hfsm

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// TransitionFunc is a machine level notification. It receives the next state
// and the state active before the transition.
type TransitionFunc[TState comparable] func(next, previous TState)

// FireEvent summarises one Fire call for an Observer.
type FireEvent struct {
	Source any
	// Target is the decided state, set even when an entry callback failed.
	// It is nil when no rule accepted the trigger.
	Target any
	// Destination is the new active state, nil unless the transition completed.
	Destination any
	Trigger     any
	// Entered is the number of states visited by the entry walk.
	Entered  int
	Err      error
	Duration time.Duration
}

// Observer receives a FireEvent after every Fire that returns.
type Observer interface {
	ObserveFire(event FireEvent)
}

// Option configures a Machine.
type Option func(*machineOptions)

type machineOptions struct {
	logger   *zap.Logger
	observer Observer
}

// WithLogger sets the logger used by the machine. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *machineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver installs an observer notified after every Fire.
func WithObserver(observer Observer) Option {
	return func(o *machineOptions) {
		o.observer = observer
	}
}

// Machine is a hierarchical state machine. It owns every state node, the set
// of root states and the active state.
//
// A Machine is not safe for concurrent use. Calling Fire from inside an entry
// callback or a notification of the same machine is unsupported: the nested
// call changes the active state under the outer one.
type Machine[TState, TTrigger comparable] struct {
	nodes map[TState]*StateNode[TState, TTrigger]

	// roots keeps root tags in creation order.
	roots []TState

	active *StateNode[TState, TTrigger]

	onTransitioning TransitionFunc[TState]
	onTransitioned  TransitionFunc[TState]

	argTypes map[TTrigger]reflect.Type

	logger   *zap.Logger
	observer Observer
}

// New creates an empty machine. States are added with CreateState and the
// machine must be given an initial state before the first Fire.
func New[TState, TTrigger comparable](opts ...Option) *Machine[TState, TTrigger] {
	o := machineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Machine[TState, TTrigger]{
		nodes:    make(map[TState]*StateNode[TState, TTrigger]),
		argTypes: make(map[TTrigger]reflect.Type),
		logger:   o.logger,
		observer: o.observer,
	}
}

// CreateState returns the node for tag, creating it as a new root if needed.
func (m *Machine[TState, TTrigger]) CreateState(tag TState) *StateNode[TState, TTrigger] {
	if node, ok := m.nodes[tag]; ok {
		return node
	}
	node := newStateNode(m, tag)
	m.nodes[tag] = node
	m.roots = append(m.roots, tag)
	return node
}

// CreateStates calls CreateState for every tag and returns the nodes in order.
func (m *Machine[TState, TTrigger]) CreateStates(tags ...TState) []*StateNode[TState, TTrigger] {
	nodes := make([]*StateNode[TState, TTrigger], len(tags))
	for i, tag := range tags {
		nodes[i] = m.CreateState(tag)
	}
	return nodes
}

// State returns the node for tag without creating it.
func (m *Machine[TState, TTrigger]) State(tag TState) (*StateNode[TState, TTrigger], bool) {
	node, ok := m.nodes[tag]
	return node, ok
}

// States returns every known tag, roots first, then each subtree depth-first.
func (m *Machine[TState, TTrigger]) States() []TState {
	result := make([]TState, 0, len(m.nodes))
	for _, root := range m.roots {
		m.nodes[root].link.ExportTree().Walk(func(t LinkTree[TState], _ int) bool {
			result = append(result, t.Tag)
			return true
		})
	}
	return result
}

// Roots returns the tags of states without parent, in creation order.
func (m *Machine[TState, TTrigger]) Roots() []TState {
	out := make([]TState, len(m.roots))
	copy(out, m.roots)
	return out
}

func (m *Machine[TState, TTrigger]) removeRoot(tag TState) {
	for i, root := range m.roots {
		if root == tag {
			m.roots = append(m.roots[:i], m.roots[i+1:]...)
			return
		}
	}
}

// SetInitialState makes tag the active state without running any callback.
// It panics with a *ConfigurationError if tag was never created.
func (m *Machine[TState, TTrigger]) SetInitialState(tag TState) {
	node, ok := m.nodes[tag]
	if !ok {
		configPanic("initial state '%v' was never created", tag)
	}
	m.active = node
}

// CurrentState returns the active state. It panics with a
// *ConfigurationError before SetInitialState.
func (m *Machine[TState, TTrigger]) CurrentState() TState {
	return m.activeNode().State()
}

func (m *Machine[TState, TTrigger]) activeNode() *StateNode[TState, TTrigger] {
	if m.active == nil {
		configPanic("no initial state set")
	}
	return m.active
}

// OnTransitioning sets the notification called after a successful decision
// and before any entry callback. Only one is kept.
func (m *Machine[TState, TTrigger]) OnTransitioning(fn TransitionFunc[TState]) {
	m.onTransitioning = fn
}

// OnTransitioned sets the notification called after every entry callback
// succeeded and before the active state changes. Only one is kept.
func (m *Machine[TState, TTrigger]) OnTransitioned(fn TransitionFunc[TState]) {
	m.onTransitioned = fn
}

// Fire handles trigger from the active state.
//
// The active node and its ancestors are searched for a rule. On success the
// entry callbacks of the destination and each of its ancestors run, target
// first. The active state changes only when every callback succeeded. When a
// callback fails, the callbacks that already ran are not undone, so entry
// callbacks should be idempotent or free of side effects on failure.
//
// Failures are returned as *TransitionError. Fire panics with a
// *ConfigurationError if no initial state is set or the decided state was
// never created, and with an *ArgumentError if args does not match a type
// declared with DeclareTrigger.
func (m *Machine[TState, TTrigger]) Fire(trigger TTrigger, args any, opts ...FireOption) (Success[TState], error) {
	o := fireOptions{report: true}
	for _, opt := range opts {
		opt(&o)
	}

	source := m.activeNode()
	if err := m.validateArgs(trigger, args); err != nil {
		panic(err)
	}

	start := time.Now()
	success, target, entered, err := m.fire(source, trigger, args, o.report)
	if m.observer != nil {
		event := FireEvent{
			Source:   source.State(),
			Trigger:  trigger,
			Entered:  entered,
			Duration: time.Since(start),
		}
		if target != nil {
			event.Target = target.State()
		}
		if err != nil {
			event.Err = err
		} else {
			event.Destination = success.NextState
		}
		m.observer.ObserveFire(event)
	}
	return success, err
}

func (m *Machine[TState, TTrigger]) fire(
	source *StateNode[TState, TTrigger],
	trigger TTrigger,
	args any,
	report bool,
) (Success[TState], *StateNode[TState, TTrigger], int, error) {
	previous := source.State()

	d := source.decide(trigger, args)
	if d.err != nil {
		m.logger.Debug("trigger not handled",
			zap.Any("state", previous),
			zap.Any("trigger", trigger),
			zap.Stringer("kind", d.err.Kind),
			zap.String("guard", d.err.FailedGuard))
		return Success[TState]{}, nil, 0, d.err
	}

	target, ok := m.nodes[d.next]
	if !ok {
		configPanic("trigger '%v' from state '%v' leads to state '%v' which was never created", trigger, previous, d.next)
	}

	if m.onTransitioning != nil {
		m.onTransitioning(d.next, previous)
	}

	sameTree := source.link.Root().tag == target.link.Root().tag

	var trace []TState
	var tracePtr *[]TState
	if report {
		trace = make([]TState, 0, target.link.Depth()+1)
		tracePtr = &trace
	}
	visited, err := target.enter(trigger, args, previous, tracePtr)
	if err != nil {
		return Success[TState]{}, target, visited, &TransitionError{
			Kind:    OtherError,
			Err:     err,
			State:   previous,
			Trigger: trigger,
		}
	}

	if m.onTransitioned != nil {
		m.onTransitioned(d.next, previous)
	}

	m.active = target
	m.logger.Debug("transitioned",
		zap.Any("from", previous),
		zap.Any("to", d.next),
		zap.Any("trigger", trigger),
		zap.Bool("crossTree", !sameTree))

	return Success[TState]{
		NextState: d.next,
		ReportedTransitions: Report[TState]{
			OnEntryCallbacksCalled:   trace,
			NextStateInDifferentTree: !sameTree,
			CurrentState:             previous,
			NextState:                d.next,
		},
	}, target, visited, nil
}

// IsInState returns true if the active state is tag or a substate of it.
func (m *Machine[TState, TTrigger]) IsInState(tag TState) bool {
	return m.activeNode().IsActiveIn(tag)
}

// CanFire returns true if trigger would be accepted from the active state.
// Guards and deciders run; entry callbacks and notifications do not.
func (m *Machine[TState, TTrigger]) CanFire(trigger TTrigger, args any) bool {
	_, err := m.activeNode().Decide(trigger, args)
	return err == nil
}

// PermittedTriggers returns the triggers whose nearest rule from the active
// state passes its guards. Deciders are not called. The order is unspecified.
func (m *Machine[TState, TTrigger]) PermittedTriggers(args any) []TTrigger {
	return m.activeNode().permittedTriggers(args)
}

// ExportLinkForest returns an independent copy of every root subtree, keyed by root tag.
func (m *Machine[TState, TTrigger]) ExportLinkForest() map[TState]LinkTree[TState] {
	forest := make(map[TState]LinkTree[TState], len(m.roots))
	for _, root := range m.roots {
		forest[root] = m.nodes[root].link.ExportTree()
	}
	return forest
}

// RenderTree returns a nested tag to children mapping for every root.
func (m *Machine[TState, TTrigger]) RenderTree() RenderedTree[TState] {
	out := make(RenderedTree[TState], len(m.roots))
	for _, root := range m.roots {
		out[root] = renderLink(m.nodes[root].link)
	}
	return out
}

// String returns a string representation of the machine.
func (m *Machine[TState, TTrigger]) String() string {
	if m.active == nil {
		return fmt.Sprintf("Machine { States = %d }", len(m.nodes))
	}
	return fmt.Sprintf("Machine { State = %v, States = %d }", m.active.State(), len(m.nodes))
}
