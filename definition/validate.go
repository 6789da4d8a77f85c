package definition

import (
	"errors"
	"fmt"
)

// ValidationError lists every problem found in a definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid definition: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid definition: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

// ErrNoChoice is returned by a dynamic rule when the argument has no mapping
// and no default is set.
var ErrNoChoice = errors.New("no destination for argument")

// Validate checks names, references and the parent hierarchy.
func (d *Definition) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	states := make(map[string]*StateDef, len(d.States))
	for i := range d.States {
		s := &d.States[i]
		if s.Name == "" {
			addf("state #%d has no name", i)
			continue
		}
		if _, dup := states[s.Name]; dup {
			addf("state %q is defined twice", s.Name)
			continue
		}
		states[s.Name] = s
	}

	known := func(name string) bool {
		_, ok := states[name]
		return ok
	}

	if d.Initial == "" {
		addf("initial state is not set")
	} else if !known(d.Initial) {
		addf("initial state %q is not defined", d.Initial)
	}

	for _, s := range d.States {
		if s.Name == "" {
			continue
		}
		if s.Parent != "" && !known(s.Parent) {
			addf("state %q has unknown parent %q", s.Name, s.Parent)
		}
		triggers := make(map[string]bool)
		for _, p := range s.Permit {
			if p.Trigger == "" {
				addf("state %q has a permit without trigger", s.Name)
			}
			if triggers[p.Trigger] {
				addf("state %q has more than one static rule for %q", s.Name, p.Trigger)
			}
			triggers[p.Trigger] = true
			if !known(p.To) {
				addf("state %q permits %q to unknown state %q", s.Name, p.Trigger, p.To)
			}
			problems = append(problems, validateGuards(s.Name, p.Trigger, p.Guards)...)
		}
		dynamic := make(map[string]bool)
		for _, r := range s.Dynamic {
			if r.Trigger == "" {
				addf("state %q has a dynamic rule without trigger", s.Name)
			}
			if dynamic[r.Trigger] {
				addf("state %q has more than one dynamic rule for %q", s.Name, r.Trigger)
			}
			dynamic[r.Trigger] = true
			if len(r.Choose) == 0 && r.Default == "" {
				addf("state %q dynamic rule %q has no destinations", s.Name, r.Trigger)
			}
			for arg, to := range r.Choose {
				if !known(to) {
					addf("state %q dynamic rule %q maps %q to unknown state %q", s.Name, r.Trigger, arg, to)
				}
			}
			if r.Default != "" && !known(r.Default) {
				addf("state %q dynamic rule %q defaults to unknown state %q", s.Name, r.Trigger, r.Default)
			}
			problems = append(problems, validateGuards(s.Name, r.Trigger, r.Guards)...)
		}
	}

	for _, s := range d.States {
		if cyclic(s.Name, states) {
			addf("state %q is its own ancestor", s.Name)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateGuards(state, trigger string, guards []GuardDef) []string {
	var problems []string
	for i, g := range guards {
		if g.Tag == "" {
			problems = append(problems, fmt.Sprintf("state %q rule %q guard #%d has no tag", state, trigger, i))
		}
		if (g.ArgEquals == nil) == (g.ArgNotEquals == nil) {
			problems = append(problems, fmt.Sprintf("state %q rule %q guard %q needs exactly one condition", state, trigger, g.Tag))
		}
	}
	return problems
}

func cyclic(name string, states map[string]*StateDef) bool {
	seen := map[string]bool{name: true}
	s, ok := states[name]
	for ok && s.Parent != "" {
		if seen[s.Parent] {
			return s.Parent == name
		}
		seen[s.Parent] = true
		s, ok = states[s.Parent]
	}
	return false
}
