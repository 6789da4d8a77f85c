package hfsm

import (
	"fmt"
	"reflect"
)

// DeclareTrigger records the argument type carried by trigger. Fire then
// rejects arguments that are not assignable to TArgs. A nil argument is
// always accepted.
func DeclareTrigger[TArgs any, TState, TTrigger comparable](m *Machine[TState, TTrigger], trigger TTrigger) {
	m.argTypes[trigger] = reflect.TypeOf((*TArgs)(nil)).Elem()
}

// ArgumentType returns the declared argument type of trigger, if any.
func (m *Machine[TState, TTrigger]) ArgumentType(trigger TTrigger) (reflect.Type, bool) {
	t, ok := m.argTypes[trigger]
	return t, ok
}

// validateArgs ensures args matches the declared type for trigger.
func (m *Machine[TState, TTrigger]) validateArgs(trigger TTrigger, args any) error {
	expected, ok := m.argTypes[trigger]
	if !ok || args == nil {
		return nil
	}
	actual := reflect.TypeOf(args)
	if actual.AssignableTo(expected) {
		return nil
	}
	return &ArgumentError{
		ParamName: "args",
		Message:   fmt.Sprintf("trigger '%v' expects argument of type %v but got %v", trigger, expected, actual),
	}
}

// castArgs converts args to TArgs; nil yields the zero value.
func castArgs[TArgs any](args any) (TArgs, error) {
	var zero TArgs
	if args == nil {
		return zero, nil
	}
	typed, ok := args.(TArgs)
	if !ok {
		return zero, &ArgumentError{
			ParamName: "args",
			Message:   fmt.Sprintf("argument is of type %T but expected type %v", args, reflect.TypeOf((*TArgs)(nil)).Elem()),
		}
	}
	return typed, nil
}
