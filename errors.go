package hfsm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed transition.
type ErrorKind int

const (
	// NoTransition means no rule applied to the trigger, or a guard rejected the rule.
	NoTransition ErrorKind = iota
	// OtherError means a decider or an entry callback returned an error.
	OtherError
)

func (k ErrorKind) String() string {
	switch k {
	case NoTransition:
		return "noTransition"
	case OtherError:
		return "otherError"
	default:
		return "unknown"
	}
}

// ErrNoTransition matches any *TransitionError of kind NoTransition via errors.Is.
var ErrNoTransition = errors.New("no transition")

// TransitionError is returned by Fire when a trigger could not be handled.
// FailedGuard is set only when a guard rejected the rule. Err is set only
// when Kind is OtherError.
type TransitionError struct {
	Kind        ErrorKind
	Err         error
	FailedGuard string
	State       any
	Trigger     any
}

func (e *TransitionError) Error() string {
	switch {
	case e.Kind == OtherError:
		return fmt.Sprintf("trigger '%v' from state '%v' failed: %v", e.Trigger, e.State, e.Err)
	case e.FailedGuard != "":
		return fmt.Sprintf(
			"trigger '%v' is valid for transition from state '%v' but guard '%s' is not met",
			e.Trigger, e.State, e.FailedGuard)
	default:
		return fmt.Sprintf("no valid leaving transitions are permitted from state '%v' for trigger '%v'", e.State, e.Trigger)
	}
}

// Unwrap returns the domain error of an OtherError failure.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Is reports NoTransition failures as ErrNoTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrNoTransition && e.Kind == NoTransition
}

// HasFailedGuard reports whether a guard caused the failure.
func (e *TransitionError) HasFailedGuard() bool {
	return e.FailedGuard != ""
}

// ConfigurationError indicates a programming mistake in how the machine is
// set up or driven, such as firing before an initial state is set. The
// machine panics with it rather than returning it.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func configPanic(format string, args ...any) {
	panic(&ConfigurationError{Message: fmt.Sprintf(format, args...)})
}

// ArgumentError indicates an invalid argument was passed.
type ArgumentError struct {
	ParamName string
	Message   string
}

func (e *ArgumentError) Error() string {
	if e.ParamName != "" {
		return fmt.Sprintf("%s (parameter: %s)", e.Message, e.ParamName)
	}
	return e.Message
}
