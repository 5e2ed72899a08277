package service

import (
	"eta_monitor/internal/models"
	"eta_monitor/internal/paramtree"
)

type treeSource interface {
	Tree() ([]models.ParamNode, uint64)
}

// TreeViewService keeps the server-side expand/collapse state of the
// parameter tree. The state is dropped whenever the tree is replaced.
type TreeViewService struct {
	src  treeSource
	view *paramtree.View
}

func NewTreeViewService(src treeSource, expandDepth int) *TreeViewService {
	return &TreeViewService{src: src, view: paramtree.NewView(expandDepth)}
}

// TreeRows applies the toggles and returns the visible rows.
func (s *TreeViewService) TreeRows(expand, collapse []string) ([]paramtree.Row, uint64) {
	nodes, rev := s.src.Tree()
	s.view.Sync(rev)
	for _, p := range expand {
		s.view.Set(p, true)
	}
	for _, p := range collapse {
		s.view.Set(p, false)
	}
	return s.view.Rows(nodes, rev), rev
}
