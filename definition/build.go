package definition

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atlekbai/hfsm"
)

// Machine is the machine type produced from a definition.
type Machine = hfsm.Machine[string, string]

// Build creates a machine from the definition and sets its initial state.
// logger is used both by the machine and by states with log_entry set; nil
// disables logging.
func (d *Definition) Build(logger *zap.Logger, opts ...hfsm.Option) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := hfsm.New[string, string](append([]hfsm.Option{hfsm.WithLogger(logger)}, opts...)...)
	for _, s := range d.States {
		m.CreateState(s.Name)
	}

	for _, s := range d.States {
		node, _ := m.State(s.Name)
		if s.Parent != "" {
			node.SubstateOf(s.Parent)
		}
		for _, p := range s.Permit {
			node.Permit(p.Trigger, p.To, buildGuards(p.Guards)...)
		}
		for _, r := range s.Dynamic {
			node.PermitDynamic(r.Trigger, chooser(r), buildGuards(r.Guards)...)
		}
		if s.LogEntry {
			name := s.Name
			node.OnEntry(func(previous string) error {
				logger.Info("state entered", zap.String("state", name), zap.String("previous", previous))
				return nil
			})
		}
	}

	m.SetInitialState(d.Initial)
	return m, nil
}

func buildGuards(defs []GuardDef) []hfsm.Guard[string] {
	guards := make([]hfsm.Guard[string], 0, len(defs))
	for _, g := range defs {
		switch {
		case g.ArgEquals != nil:
			want := *g.ArgEquals
			guards = append(guards, hfsm.NewGuard(g.Tag, func(_ string, args any) bool {
				return ArgString(args) == want
			}))
		case g.ArgNotEquals != nil:
			reject := *g.ArgNotEquals
			guards = append(guards, hfsm.NewGuard(g.Tag, func(_ string, args any) bool {
				return ArgString(args) != reject
			}))
		}
	}
	return guards
}

func chooser(r DynamicDef) hfsm.Decider[string] {
	choose := make(map[string]string, len(r.Choose))
	for k, v := range r.Choose {
		choose[k] = v
	}
	fallback := r.Default
	return func(args any) (string, error) {
		arg := ArgString(args)
		if to, ok := choose[arg]; ok {
			return to, nil
		}
		if fallback != "" {
			return fallback, nil
		}
		return "", fmt.Errorf("%w %q", ErrNoChoice, arg)
	}
}

// ArgString formats a trigger argument for comparison. nil is the empty string.
func ArgString(args any) string {
	if args == nil {
		return ""
	}
	if s, ok := args.(string); ok {
		return s
	}
	return fmt.Sprint(args)
}
