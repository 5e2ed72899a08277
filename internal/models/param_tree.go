package models

// NodeKind classifies how a parameter node is displayed.
type NodeKind string

const (
	NodeLeaf  NodeKind = "leaf"  // has a value
	NodeGroup NodeKind = "group" // has children
	NodeLabel NodeKind = "label" // neither
)

// ParamNode is one addressable controller variable or a group of them.
// Value and Children may both be set; nothing enforces the leaf/group split.
type ParamNode struct {
	Name     string      `json:"name"`
	Value    *float64    `json:"value,omitempty"`
	Unit     string      `json:"unit,omitempty"`
	Children []ParamNode `json:"children,omitempty"`
}

// HasValue reports whether the node carries a reading.
func (n ParamNode) HasValue() bool { return n.Value != nil }

// HasChildren reports whether the node can be expanded.
func (n ParamNode) HasChildren() bool { return len(n.Children) > 0 }

// Kind returns the display kind. Children win over a value because they need the expand affordance.
func (n ParamNode) Kind() NodeKind {
	switch {
	case n.HasChildren():
		return NodeGroup
	case n.HasValue():
		return NodeLeaf
	default:
		return NodeLabel
	}
}

// Float returns a pointer to v, handy for building leaves.
func Float(v float64) *float64 { return &v }
