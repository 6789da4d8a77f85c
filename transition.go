package hfsm

// Report describes a completed transition.
type Report[TState comparable] struct {
	// OnEntryCallbacksCalled lists the states visited by the entry walk,
	// target first and root last. It is nil when reporting was disabled.
	OnEntryCallbacksCalled []TState `json:"onEntryCallbacksCalled" yaml:"onEntryCallbacksCalled"`

	// NextStateInDifferentTree is true when source and target have different roots.
	NextStateInDifferentTree bool `json:"nextStateInDifferentTree" yaml:"nextStateInDifferentTree"`

	// CurrentState is the state active before the transition.
	CurrentState TState `json:"currentState" yaml:"currentState"`

	// NextState is the state active after the transition.
	NextState TState `json:"nextState" yaml:"nextState"`
}

// Success is the outcome of a successful Fire.
type Success[TState comparable] struct {
	NextState           TState         `json:"nextState" yaml:"nextState"`
	ReportedTransitions Report[TState] `json:"reportedTransitions" yaml:"reportedTransitions"`
}

// decision is the outcome of the rule lookup, before any callback runs.
type decision[TState comparable] struct {
	next TState
	err  *TransitionError
}

// FireOption tunes a single Fire call.
type FireOption func(*fireOptions)

type fireOptions struct {
	report bool
}

// WithoutReport skips collecting OnEntryCallbacksCalled. Callbacks still run.
func WithoutReport() FireOption {
	return func(o *fireOptions) {
		o.report = false
	}
}

// WithReport sets whether OnEntryCallbacksCalled is collected.
func WithReport(report bool) FireOption {
	return func(o *fireOptions) {
		o.report = report
	}
}
