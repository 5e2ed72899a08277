package paramtree

import (
	"sync"

	"eta_monitor/internal/models"
)

// DefaultExpandDepth expands the root and its direct children.
const DefaultExpandDepth = 2

// Row is one visible line of the rendered tree.
type Row struct {
	Path       string          `json:"path"`
	Name       string          `json:"name"`
	Depth      int             `json:"depth"`
	Kind       models.NodeKind `json:"kind"`
	Value      *float64        `json:"value,omitempty"`
	Unit       string          `json:"unit,omitempty"`
	Display    string          `json:"display,omitempty"`
	Expandable bool            `json:"expandable"`
	Expanded   bool            `json:"expanded"`
}

// View holds expand/collapse overrides keyed by node path. The overrides
// belong to one tree revision; a new revision starts from the defaults.
type View struct {
	mu          sync.Mutex
	expandDepth int
	revision    uint64
	overrides   map[string]bool
}

// NewView returns a view that expands nodes shallower than expandDepth.
func NewView(expandDepth int) *View {
	if expandDepth < 0 {
		expandDepth = 0
	}
	return &View{expandDepth: expandDepth, overrides: make(map[string]bool)}
}

// Revision is the tree revision the current overrides apply to.
func (v *View) Revision() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.revision
}

// Sync drops all overrides when rev differs from the tracked revision.
func (v *View) Sync(rev uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syncLocked(rev)
}

func (v *View) syncLocked(rev uint64) {
	if rev != v.revision {
		v.revision = rev
		v.overrides = make(map[string]bool)
	}
}

// Set records an explicit expand (true) or collapse (false) for path.
func (v *View) Set(path string, expanded bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overrides[path] = expanded
}

// Expanded reports whether the node at path and depth is open.
func (v *View) Expanded(path string, depth int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expandedLocked(path, depth)
}

func (v *View) expandedLocked(path string, depth int) bool {
	if e, ok := v.overrides[path]; ok {
		return e
	}
	return depth < v.expandDepth
}

// Rows flattens the visible part of the tree for revision rev.
func (v *View) Rows(nodes []models.ParamNode, rev uint64) []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syncLocked(rev)

	rows := make([]Row, 0, len(nodes))
	Walk(nodes, func(path string, depth int, n models.ParamNode) bool {
		open := n.HasChildren() && v.expandedLocked(path, depth)
		rows = append(rows, Row{
			Path:       path,
			Name:       n.Name,
			Depth:      depth,
			Kind:       n.Kind(),
			Value:      n.Value,
			Unit:       n.Unit,
			Display:    FormatValue(n),
			Expandable: n.HasChildren(),
			Expanded:   open,
		})
		return open
	})
	return rows
}
