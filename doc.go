// Package hfsm provides a generic hierarchical (nested) finite state machine.
//
// States are arranged in a tree. A substate inherits the transition rules of
// its ancestors for every trigger it has no rule of its own for:
//
//   - Generic types for states and triggers
//   - Static (Permit) and dynamic (PermitDynamic) rules with tagged guards
//   - Common and trigger-bound entry callbacks, run from the target state up to its root
//   - Single-slot transitioning and transitioned notifications
//   - Introspection: link forest export, nested tree rendering, graph generation
//
// # Basic Usage
//
// Create a machine and its states:
//
//	m := hfsm.New[string, string]()
//	m.CreateState("idle").Permit("start", "live")
//	m.CreateState("live")
//	m.SetInitialState("idle")
//
// Fire triggers to cause transitions:
//
//	res, err := m.Fire("start", nil)
//
// # Hierarchical States
//
//	m.CreateState("idle_full").SubstateOf("idle")
//
// Firing "start" while idle_full is active uses the rule of idle. A rule on a
// substate shadows the ancestor rule for the same trigger even when its guard
// rejects the transition; the lookup only moves up when a state has no rule
// at all for the trigger.
//
// # Entry Callbacks
//
// On a successful decision the machine calls, for the target state and then
// each ancestor up to the root, the common OnEntry callback followed by the
// OnEntryFrom callback registered for the fired trigger. The first error stops
// the walk and the active state is left unchanged. Callbacks that already ran
// are not rolled back.
//
// # Concurrency
//
// A Machine is synchronous and not safe for concurrent use. Firing the same
// machine from one of its own callbacks is unsupported.
//
// # Graph Generation
//
//	import "github.com/atlekbai/hfsm/graph"
//	dot := graph.UmlDotGraph(m.Info())
package hfsm
