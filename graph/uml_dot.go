package graph

import (
	"fmt"
	"strings"

	"github.com/atlekbai/hfsm"
)

// DotStyle draws UML flavoured Graphviz diagrams. Superstates become
// clusters and the active state is drawn with a thick border.
type DotStyle struct{}

var _ Style = DotStyle{}

// Header opens the digraph.
func (DotStyle) Header(*Diagram) string {
	return "digraph {\n" +
		"\tcompound=true;\n" +
		"\trankdir=LR;\n" +
		"\tnode [shape=Mrecord];\n"
}

// Node draws a leaf state, with its entry callback in a second record field.
func (DotStyle) Node(n *Node, depth int) string {
	label := EscapeLabel(n.Name)
	if n.Entry != "" {
		label += "|entry / " + EscapeLabel(n.Entry)
	}
	return fmt.Sprintf("%s%s [label=\"%s\"%s];\n", indent(depth+1), quote(n.ID), label, activeAttr(n))
}

// Composite draws a superstate as a cluster containing a plain anchor node.
func (DotStyle) Composite(n *Node, body string, depth int) string {
	pad := indent(depth + 1)
	label := EscapeLabel(n.Name)
	if n.Entry != "" {
		label += `\n----------\nentry / ` + EscapeLabel(n.Entry)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%ssubgraph %s {\n", pad, quote("cluster_"+n.ID))
	fmt.Fprintf(&sb, "%s\tlabel=\"%s\";\n", pad, label)
	fmt.Fprintf(&sb, "%s\t%s [label=%s, shape=plaintext%s];\n", pad, quote(n.ID), quote(n.Name), activeAttr(n))
	sb.WriteString(body)
	sb.WriteString(pad + "}\n")
	return sb.String()
}

// Choice draws the decider of a dynamic rule as a diamond.
func (DotStyle) Choice(c *Choice) string {
	return fmt.Sprintf("\t%s [shape=diamond, label=%s];\n", quote(c.ID), quote(c.Decider))
}

// Edge draws one rule.
func (DotStyle) Edge(e *Edge) string {
	return fmt.Sprintf("\t%s -> %s [label=%s];\n", quote(e.From.ID), quote(e.Target()), quote(e.Label()))
}

// Footer points an initial marker at the active state and closes the digraph.
func (DotStyle) Footer(d *Diagram) string {
	if d.Active == nil {
		return "}\n"
	}
	return "\tinit [label=\"\", shape=point];\n" +
		fmt.Sprintf("\tinit -> %s;\n", quote(d.Active.ID)) +
		"}\n"
}

func activeAttr(n *Node) string {
	if n.Active {
		return ", penwidth=2"
	}
	return ""
}

func quote(s string) string {
	return `"` + EscapeLabel(s) + `"`
}

// EscapeLabel escapes backslashes and double quotes for DOT strings.
func EscapeLabel(label string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(label)
}

// UmlDotGraph draws the machine described by info as a DOT digraph.
func UmlDotGraph(info *hfsm.MachineInfo) string {
	return NewDiagram(info).Render(DotStyle{})
}
