package tree

import "modhub/internal/model"

// Node is one module in the in-memory hierarchy.
//
// Children are owned by their parent (no node appears under two parents) and
// are always kept sorted by OrderIndex ascending.
type Node struct {
	ID         int64
	Name       string
	ParentID   *int64
	OrderIndex int
	// IsLeafContent marks a terminal content node; children may not be added under it.
	IsLeafContent bool
	Content       string
	Children      []*Node
}

// HasChildren reports whether the node currently has children.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// FromModules converts wire-form modules into load-ready nodes.
func FromModules(mods []model.ModuleNode) []Node {
	out := make([]Node, 0, len(mods))
	for _, m := range mods {
		out = append(out, Node{
			ID:            m.ID,
			Name:          m.Name,
			ParentID:      m.ParentID,
			OrderIndex:    m.OrderIndex,
			IsLeafContent: m.IsLeafContent,
			Content:       m.Content,
		})
	}
	return out
}
