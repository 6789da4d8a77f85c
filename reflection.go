package hfsm

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
)

// DefaultFunctionDescription is used for anonymous callbacks.
const DefaultFunctionDescription = "Function"

// describeFunc returns a short name for fn, or DefaultFunctionDescription
// for closures and other compiler-generated functions.
func describeFunc(fn any) string {
	if fn == nil {
		return ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return DefaultFunctionDescription
	}
	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if strings.Contains(name, ".func") || strings.Contains(name, "[...]") {
		return DefaultFunctionDescription
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// MachineInfo exposes the states, rules and callbacks of a machine.
type MachineInfo struct {
	// Current is the active state, nil before SetInitialState.
	Current *StateInfo

	// States contains all states, roots first, each subtree depth-first.
	States []*StateInfo

	StateType   string
	TriggerType string
}

// StateInfo describes one state node.
type StateInfo struct {
	UnderlyingState any

	Superstate *StateInfo
	Substates  []*StateInfo

	// EntryAction describes the common entry callback, empty if none.
	EntryAction string

	// EntryFrom describes the trigger-bound entry callbacks.
	EntryFrom []EntryFromInfo

	StaticTransitions  []StaticTransitionInfo
	DynamicTransitions []DynamicTransitionInfo
}

// Name returns the state formatted with %v.
func (s *StateInfo) Name() string {
	if s == nil {
		return "<null>"
	}
	return fmt.Sprintf("%v", s.UnderlyingState)
}

// EntryFromInfo describes an entry callback bound to a trigger.
type EntryFromInfo struct {
	Trigger     any
	Description string
}

// StaticTransitionInfo describes a Permit rule.
type StaticTransitionInfo struct {
	Trigger     any
	Destination *StateInfo
	Guards      []string
}

// DynamicTransitionInfo describes a PermitDynamic rule.
type DynamicTransitionInfo struct {
	Trigger any
	Decider string
	Guards  []string
}

// Info returns a snapshot of the machine configuration for introspection.
func (m *Machine[TState, TTrigger]) Info() *MachineInfo {
	infos := make(map[TState]*StateInfo, len(m.nodes))
	order := m.States()
	for _, tag := range order {
		node := m.nodes[tag]
		info := &StateInfo{
			UnderlyingState: tag,
			EntryAction:     describeFunc(node.entry),
		}
		for trigger, fn := range node.entryFrom {
			info.EntryFrom = append(info.EntryFrom, EntryFromInfo{Trigger: trigger, Description: describeFunc(fn)})
		}
		sort.Slice(info.EntryFrom, func(i, j int) bool {
			return fmt.Sprint(info.EntryFrom[i].Trigger) < fmt.Sprint(info.EntryFrom[j].Trigger)
		})
		infos[tag] = info
	}

	for _, tag := range order {
		node := m.nodes[tag]
		info := infos[tag]
		if node.parent != nil {
			info.Superstate = infos[node.parent.State()]
		}
		for _, child := range node.link.children {
			info.Substates = append(info.Substates, infos[child.tag])
		}
		for trigger, r := range node.staticRules {
			if _, shadowed := node.dynamicRules[trigger]; shadowed {
				continue
			}
			dest, ok := infos[r.next]
			if !ok {
				dest = &StateInfo{UnderlyingState: r.next}
			}
			info.StaticTransitions = append(info.StaticTransitions, StaticTransitionInfo{
				Trigger:     trigger,
				Destination: dest,
				Guards:      r.guards.Tags(),
			})
		}
		sort.Slice(info.StaticTransitions, func(i, j int) bool {
			return fmt.Sprint(info.StaticTransitions[i].Trigger) < fmt.Sprint(info.StaticTransitions[j].Trigger)
		})
		for trigger, r := range node.dynamicRules {
			info.DynamicTransitions = append(info.DynamicTransitions, DynamicTransitionInfo{
				Trigger: trigger,
				Decider: describeFunc(r.decider),
				Guards:  r.guards.Tags(),
			})
		}
		sort.Slice(info.DynamicTransitions, func(i, j int) bool {
			return fmt.Sprint(info.DynamicTransitions[i].Trigger) < fmt.Sprint(info.DynamicTransitions[j].Trigger)
		})
	}

	states := make([]*StateInfo, len(order))
	for i, tag := range order {
		states[i] = infos[tag]
	}

	result := &MachineInfo{
		States:      states,
		StateType:   fmt.Sprintf("%T", *new(TState)),
		TriggerType: fmt.Sprintf("%T", *new(TTrigger)),
	}
	if m.active != nil {
		result.Current = infos[m.active.State()]
	}
	return result
}
