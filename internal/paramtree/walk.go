// Package paramtree traverses the controller parameter tree and keeps the
// expand/collapse state a dashboard needs to render it.
package paramtree

import (
	"strconv"
	"strings"

	"eta_monitor/internal/models"
)

// Separator joins node names into a path.
const Separator = "/"

// VisitFunc is called for every node in pre-order. Returning false skips the
// node's children.
type VisitFunc func(path string, depth int, n models.ParamNode) bool

// Walk visits nodes depth-first, parents before children, in sibling order.
func Walk(nodes []models.ParamNode, fn VisitFunc) {
	walk(nodes, "", 0, fn)
}

func walk(nodes []models.ParamNode, parent string, depth int, fn VisitFunc) {
	seen := make(map[string]int, len(nodes))
	for _, n := range nodes {
		seg := segmentEscaper.Replace(n.Name)
		seen[seg]++
		if k := seen[seg]; k > 1 {
			seg += dupMarker + strconv.Itoa(k)
		}
		p := JoinPath(parent, seg)
		if fn(p, depth, n) && n.HasChildren() {
			walk(n.Children, p, depth+1, fn)
		}
	}
}

// A path segment is the node name with "%", "/" and "~" percent-encoded. The
// second and later siblings sharing a name get "~2", "~3", ... appended, so
// every node of a tree has its own path.
const dupMarker = "~"

var segmentEscaper = strings.NewReplacer("%", "%25", Separator, "%2F", dupMarker, "%7E")

// JoinPath appends an already escaped segment to parent.
func JoinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + Separator + segment
}

// Count returns the total number of nodes.
func Count(nodes []models.ParamNode) int {
	total := 0
	Walk(nodes, func(string, int, models.ParamNode) bool {
		total++
		return true
	})
	return total
}

// FormatValue renders a node's (value, unit) pair, or "" for nodes without a value.
func FormatValue(n models.ParamNode) string {
	if n.Value == nil {
		return ""
	}
	v := strconv.FormatFloat(*n.Value, 'f', -1, 64)
	if n.Unit == "" {
		return v
	}
	return strings.Join([]string{v, n.Unit}, " ")
}
