package hfsm

// TreeLink holds the pure hierarchy of a state: its parent and children.
// It carries no transition rules, so the shape of the tree can be exported
// without exposing the live state nodes.
type TreeLink[TState comparable] struct {
	tag TState

	// parent is a non-owning back-reference (nil for a root).
	parent *TreeLink[TState]

	// children are owned by this link, in registration order.
	children []*TreeLink[TState]
}

// NewTreeLink creates a detached link for the given tag.
func NewTreeLink[TState comparable](tag TState) *TreeLink[TState] {
	return &TreeLink[TState]{tag: tag}
}

// Tag returns the state tag of this link.
func (l *TreeLink[TState]) Tag() TState {
	return l.tag
}

// Parent returns the parent link, or nil for a root.
func (l *TreeLink[TState]) Parent() *TreeLink[TState] {
	return l.parent
}

// Children returns the child links in registration order.
func (l *TreeLink[TState]) Children() []*TreeLink[TState] {
	return l.children
}

// attach links child under l.
func (l *TreeLink[TState]) attach(child *TreeLink[TState]) {
	child.parent = l
	l.children = append(l.children, child)
}

// IsRoot reports whether the link has no parent.
func (l *TreeLink[TState]) IsRoot() bool {
	return l.parent == nil
}

// Root walks the parent chain up to the top-most link.
func (l *TreeLink[TState]) Root() *TreeLink[TState] {
	root := l
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Depth returns the number of ancestors of the link.
func (l *TreeLink[TState]) Depth() int {
	depth := 0
	for p := l.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// IsDirectSubstateOf returns true if the parent of this link has the given tag.
func (l *TreeLink[TState]) IsDirectSubstateOf(tag TState) bool {
	return l.parent != nil && l.parent.tag == tag
}

// IsDescendantOf returns true if the given tag appears anywhere in the
// parent chain of this link.
func (l *TreeLink[TState]) IsDescendantOf(tag TState) bool {
	if l.parent == nil {
		return false
	}
	if l.parent.tag == tag {
		return true
	}
	return l.parent.IsDescendantOf(tag)
}

// ExportTree produces a detached snapshot of this link and its descendants.
func (l *TreeLink[TState]) ExportTree() LinkTree[TState] {
	out := LinkTree[TState]{Tag: l.tag}
	if l.parent != nil {
		parentTag := l.parent.tag
		out.ParentTag = &parentTag
	}
	if len(l.children) > 0 {
		out.Children = make([]LinkTree[TState], len(l.children))
		for i, child := range l.children {
			out.Children[i] = child.ExportTree()
		}
	}
	return out
}

// LinkTree is a value copy of a subtree of links. It has no behaviour and
// shares no memory with the machine it was exported from.
type LinkTree[TState comparable] struct {
	Tag       TState             `json:"tag" yaml:"tag"`
	ParentTag *TState            `json:"parentTag,omitempty" yaml:"parentTag,omitempty"`
	Children  []LinkTree[TState] `json:"children,omitempty" yaml:"children,omitempty"`
}

// Walk visits the tree depth-first, parents before children. Returning false
// from fn stops the walk.
func (t LinkTree[TState]) Walk(fn func(node LinkTree[TState], depth int) bool) {
	t.walk(fn, 0)
}

func (t LinkTree[TState]) walk(fn func(LinkTree[TState], int) bool, depth int) bool {
	if !fn(t, depth) {
		return false
	}
	for _, child := range t.Children {
		if !child.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// RenderedTree is a nested tag to children mapping used for visualisation.
type RenderedTree[TState comparable] map[TState]RenderedTree[TState]

func renderLink[TState comparable](l *TreeLink[TState]) RenderedTree[TState] {
	out := make(RenderedTree[TState], len(l.children))
	for _, child := range l.children {
		out[child.tag] = renderLink(child)
	}
	return out
}
