package graph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/atlekbai/hfsm"
)

// Direction is the layout direction of a Mermaid diagram.
type Direction string

const (
	// DefaultDirection leaves the direction to the renderer.
	DefaultDirection Direction = ""
	TopToBottom      Direction = "TB"
	BottomToTop      Direction = "BT"
	LeftToRight      Direction = "LR"
	RightToLeft      Direction = "RL"
)

// MermaidStyle draws Mermaid stateDiagram-v2 diagrams. State names Mermaid
// cannot parse are replaced by sanitized IDs and declared as aliases.
type MermaidStyle struct {
	Direction Direction
}

var _ Style = MermaidStyle{}

// Header declares the diagram, its direction and the aliases of renamed states.
func (s MermaidStyle) Header(d *Diagram) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	if s.Direction != DefaultDirection {
		fmt.Fprintf(&sb, "\tdirection %s\n", s.Direction)
	}
	for _, name := range d.names() {
		if n := d.Nodes[name]; n.ID != n.Name {
			fmt.Fprintf(&sb, "\t%s : %s\n", n.ID, n.Name)
		}
	}
	return sb.String()
}

// Node declares a leaf state.
func (MermaidStyle) Node(n *Node, depth int) string {
	return indent(depth+1) + n.ID + "\n"
}

// Composite declares a composite state around its substates.
func (MermaidStyle) Composite(n *Node, body string, depth int) string {
	pad := indent(depth + 1)
	return pad + "state " + n.ID + " {\n" + body + pad + "}\n"
}

// Choice declares a choice pseudo state.
func (MermaidStyle) Choice(c *Choice) string {
	return "\tstate " + c.ID + " <<choice>>\n"
}

// Edge draws one rule.
func (MermaidStyle) Edge(e *Edge) string {
	return fmt.Sprintf("\t%s --> %s : %s\n", e.From.ID, e.Target(), e.Label())
}

// Footer starts the diagram in the active state.
func (MermaidStyle) Footer(d *Diagram) string {
	if d.Active == nil {
		return ""
	}
	return "\t[*] --> " + d.Active.ID + "\n"
}

// assignMermaidIDs gives every node an ID without spaces, colons or dashes.
// IDs clashing with another node or a choice get a numeric suffix.
func assignMermaidIDs(d *Diagram) {
	used := make(map[string]bool, len(d.Nodes)+len(d.Choices))
	for _, c := range d.Choices {
		used[c.ID] = true
	}
	for _, name := range d.names() {
		if sanitize(name) == name {
			used[name] = true
		}
	}
	for _, name := range d.names() {
		id := sanitize(name)
		if id != name {
			base := id
			for i := 1; used[id]; i++ {
				id = fmt.Sprintf("%s_%d", base, i)
			}
			used[id] = true
		}
		d.Nodes[name].ID = id
	}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ':' || r == '-' {
			return -1
		}
		return r
	}, name)
}

// MermaidGraph draws the machine described by info as a Mermaid state diagram.
func MermaidGraph(info *hfsm.MachineInfo, direction Direction) string {
	d := NewDiagram(info)
	assignMermaidIDs(d)
	return d.Render(MermaidStyle{Direction: direction})
}
