// Package graph draws hfsm machines as Graphviz DOT or Mermaid state diagrams.
//
// Both formats are produced from the hfsm.MachineInfo snapshot of a machine:
//
//	dot := graph.UmlDotGraph(m.Info())
//	mmd := graph.MermaidGraph(m.Info(), graph.LeftToRight)
package graph

import "strings"

// Node is one machine state in a diagram.
type Node struct {
	// Name is the state formatted with %v.
	Name string
	// ID identifies the node in the output format.
	ID string

	// Entry describes the common entry callback, empty if none.
	Entry string
	// Active marks the state that was active when the snapshot was taken.
	Active bool

	Parent   *Node
	Children []*Node

	Out []*Edge
	In  []*Edge
}

// IsComposite reports whether the node has substates.
func (n *Node) IsComposite() bool {
	return len(n.Children) > 0
}

// Choice is the branching point of a dynamic rule.
type Choice struct {
	ID      string
	Decider string
}

// Edge is one rule leaving a state.
type Edge struct {
	Trigger string
	From    *Node

	// To is nil when the edge ends in Choice.
	To     *Node
	Choice *Choice

	Guards []string
	// Actions are the entry callbacks To runs for Trigger.
	Actions []string
}

// Target returns the ID of the node the edge ends in.
func (e *Edge) Target() string {
	switch {
	case e.Choice != nil:
		return e.Choice.ID
	case e.To != nil:
		return e.To.ID
	default:
		return ""
	}
}

// IsSelfLoop reports whether the edge re-enters its own source.
func (e *Edge) IsSelfLoop() bool {
	return e.To != nil && e.To == e.From
}

// Label renders the edge as "trigger / action, action [guard] [guard]".
func (e *Edge) Label() string {
	var sb strings.Builder
	sb.WriteString(e.Trigger)
	if len(e.Actions) > 0 {
		sb.WriteString(" / ")
		sb.WriteString(strings.Join(e.Actions, ", "))
	}
	for _, g := range e.Guards {
		sb.WriteString(" [")
		sb.WriteString(g)
		sb.WriteString("]")
	}
	return sb.String()
}
