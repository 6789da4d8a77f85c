package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atlekbai/hfsm"
)

// Diagram is the format independent layout of a machine.
type Diagram struct {
	Nodes   map[string]*Node
	Roots   []*Node
	Edges   []*Edge
	Choices []*Choice

	// Active is nil when the machine had no initial state.
	Active *Node
}

// NewDiagram lays out the states, rules and entry callbacks of info.
// Node IDs default to the state names.
func NewDiagram(info *hfsm.MachineInfo) *Diagram {
	d := &Diagram{Nodes: make(map[string]*Node, len(info.States))}

	for _, s := range info.States {
		name := s.Name()
		d.Nodes[name] = &Node{Name: name, ID: name, Entry: s.EntryAction}
	}
	if info.Current != nil {
		d.Active = d.Nodes[info.Current.Name()]
		if d.Active != nil {
			d.Active.Active = true
		}
	}

	for _, s := range info.States {
		n := d.Nodes[s.Name()]
		if s.Superstate == nil {
			d.Roots = append(d.Roots, n)
		} else {
			n.Parent = d.Nodes[s.Superstate.Name()]
		}
		for _, sub := range s.Substates {
			n.Children = append(n.Children, d.Nodes[sub.Name()])
		}
	}

	for _, s := range info.States {
		from := d.Nodes[s.Name()]
		for _, st := range s.StaticTransitions {
			to, ok := d.Nodes[st.Destination.Name()]
			if !ok {
				continue
			}
			d.connect(&Edge{Trigger: fmt.Sprint(st.Trigger), From: from, To: to, Guards: st.Guards})
		}
		for _, dyn := range s.DynamicTransitions {
			c := &Choice{ID: d.choiceID(), Decider: dyn.Decider}
			d.Choices = append(d.Choices, c)
			d.connect(&Edge{Trigger: fmt.Sprint(dyn.Trigger), From: from, Choice: c, Guards: dyn.Guards})
		}
	}

	// trigger bound entry callbacks label the edges arriving with that trigger
	for _, s := range info.States {
		n := d.Nodes[s.Name()]
		for _, ef := range s.EntryFrom {
			trigger := fmt.Sprint(ef.Trigger)
			for _, e := range n.In {
				if e.Trigger == trigger {
					e.Actions = append(e.Actions, ef.Description)
				}
			}
		}
	}
	return d
}

// choiceID numbers choices, skipping numbers taken by a state name.
func (d *Diagram) choiceID() string {
	for n := len(d.Choices) + 1; ; n++ {
		id := fmt.Sprintf("Decision%d", n)
		if _, taken := d.Nodes[id]; !taken && !d.hasChoice(id) {
			return id
		}
	}
}

func (d *Diagram) hasChoice(id string) bool {
	for _, c := range d.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (d *Diagram) connect(e *Edge) {
	d.Edges = append(d.Edges, e)
	e.From.Out = append(e.From.Out, e)
	if e.To != nil {
		e.To.In = append(e.To.In, e)
	}
}

// Render writes the diagram with style: states nested by hierarchy, then
// choices, then edges ordered by source, target and trigger.
func (d *Diagram) Render(style Style) string {
	var sb strings.Builder
	sb.WriteString(style.Header(d))
	for _, root := range d.Roots {
		sb.WriteString(d.renderNode(style, root, 0))
	}
	for _, c := range d.Choices {
		sb.WriteString(style.Choice(c))
	}
	for _, e := range d.sortedEdges() {
		if e.Target() == "" {
			continue
		}
		sb.WriteString(style.Edge(e))
	}
	sb.WriteString(style.Footer(d))
	return sb.String()
}

func (d *Diagram) renderNode(style Style, n *Node, depth int) string {
	if !n.IsComposite() {
		return style.Node(n, depth)
	}
	var body strings.Builder
	for _, child := range n.Children {
		body.WriteString(d.renderNode(style, child, depth+1))
	}
	return style.Composite(n, body.String(), depth)
}

func (d *Diagram) sortedEdges() []*Edge {
	edges := make([]*Edge, len(d.Edges))
	copy(edges, d.Edges)
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From.Name != b.From.Name {
			return a.From.Name < b.From.Name
		}
		if a.Target() != b.Target() {
			return a.Target() < b.Target()
		}
		return a.Trigger < b.Trigger
	})
	return edges
}

// names returns the state names in lexical order.
func (d *Diagram) names() []string {
	names := make([]string, 0, len(d.Nodes))
	for name := range d.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}
