package graph

// Style turns the parts of a Diagram into one output format.
// Every method returns complete lines.
type Style interface {
	Header(d *Diagram) string
	// Node formats a state without substates at the given nesting depth.
	Node(n *Node, depth int) string
	// Composite wraps the already formatted substates of n.
	Composite(n *Node, body string, depth int) string
	Choice(c *Choice) string
	Edge(e *Edge) string
	// Footer marks the active state and closes the diagram.
	Footer(d *Diagram) string
}
