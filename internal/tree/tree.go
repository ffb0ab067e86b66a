package tree

import (
	"fmt"
	"sort"

	"modhub/internal/model"
)

// Tree holds the authoritative in-memory module hierarchy for one workspace,
// plus the transient UI state that belongs with it (selection, expanded set).
//
// Mutation discipline: Load, ReplaceSiblingGroup (via the mutation
// controller), AddNode and RemoveSubtree are the only structural writers.
// Everything else (search, move validation, rendering) reads.
type Tree struct {
	byID  map[int64]*Node
	roots []*Node

	expanded map[int64]bool
	selected *int64
}

func New() *Tree {
	return &Tree{
		byID:     map[int64]*Node{},
		expanded: map[int64]bool{},
	}
}

// Load replaces the entire node collection and rebuilds parent->children
// adjacency. A node whose ParentID does not resolve fails the whole load with
// *MalformedTreeError; the previous collection is left untouched in that case.
//
// Expanded/selection state survives a reload for ids that still exist, so a
// background refresh does not collapse the editor.
func (t *Tree) Load(nodes []Node) error {
	byID := make(map[int64]*Node, len(nodes))
	for i := range nodes {
		n := nodes[i] // copy; callers keep ownership of their slice
		n.Children = nil
		byID[n.ID] = &n
	}

	var roots []*Node
	for _, n := range byID {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		p, ok := byID[*n.ParentID]
		if !ok {
			return &MalformedTreeError{NodeID: n.ID, ParentID: *n.ParentID}
		}
		p.Children = append(p.Children, n)
	}

	sortSiblings(roots)
	for _, n := range byID {
		sortSiblings(n.Children)
	}

	t.byID = byID
	t.roots = roots

	for id := range t.expanded {
		if _, ok := byID[id]; !ok {
			delete(t.expanded, id)
		}
	}
	if t.selected != nil {
		if _, ok := byID[*t.selected]; !ok {
			t.selected = nil
		}
	}
	return nil
}

func sortSiblings(sibs []*Node) {
	sort.SliceStable(sibs, func(i, j int) bool {
		if sibs[i].OrderIndex != sibs[j].OrderIndex {
			return sibs[i].OrderIndex < sibs[j].OrderIndex
		}
		// Equal order indexes should not happen, but keep the ordering
		// deterministic if they do.
		return sibs[i].ID < sibs[j].ID
	})
}

// Len returns the number of nodes currently loaded.
func (t *Tree) Len() int { return len(t.byID) }

// Roots returns the root-level sibling group in order.
func (t *Tree) Roots() []*Node { return t.roots }

// FindNode returns the node for id, or false if it is not loaded.
func (t *Tree) FindNode(id int64) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// mustNode panics on unknown ids: every internal caller operates on ids taken
// from the current collection, so a miss is an invariant violation, not a
// recoverable condition.
func (t *Tree) mustNode(id int64) *Node {
	n, ok := t.byID[id]
	if !ok {
		panic(fmt.Sprintf("tree: unknown node id %d", id))
	}
	return n
}

// FindParentAndSiblings returns the owning parent (nil for root-level nodes)
// and the node's ordered sibling group, the moved node included.
func (t *Tree) FindParentAndSiblings(id int64) (*Node, []*Node) {
	n := t.mustNode(id)
	if n.ParentID == nil {
		return nil, t.roots
	}
	p := t.mustNode(*n.ParentID)
	return p, p.Children
}

// AncestorChain returns ancestor ids ordered root-first, up to and including
// the node's immediate parent. Root-level nodes get an empty chain.
func (t *Tree) AncestorChain(id int64) []int64 {
	n := t.mustNode(id)
	var chain []int64
	for n.ParentID != nil {
		pid := *n.ParentID
		chain = append(chain, pid)
		n = t.mustNode(pid)
	}
	// Collected parent-first; the contract is root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// SlotOf returns the sibling-group slot the node currently lives in.
func (t *Tree) SlotOf(id int64) Slot {
	n := t.mustNode(id)
	return Slot{ParentID: n.ParentID, Depth: len(t.AncestorChain(id))}
}

// ReplaceSiblingGroup atomically rewrites one parent's children to the given
// sequence. It is the only mutation entry point for reordering: order indexes
// must already be strictly increasing (the allocator guarantees this), so the
// sibling-sort invariant is never transiently violated.
func (t *Tree) ReplaceSiblingGroup(parentID *int64, ordered []*Node) {
	prev := -1 << 62
	for _, n := range ordered {
		if _, ok := t.byID[n.ID]; !ok {
			panic(fmt.Sprintf("tree: ReplaceSiblingGroup with unknown node %d", n.ID))
		}
		if n.OrderIndex <= prev {
			panic(fmt.Sprintf("tree: ReplaceSiblingGroup with non-increasing order index at node %d", n.ID))
		}
		prev = n.OrderIndex
	}
	for _, n := range ordered {
		n.ParentID = parentID
	}
	if parentID == nil {
		t.roots = ordered
		return
	}
	t.mustNode(*parentID).Children = ordered
}

// siblingEntry records what a reorder can change: membership order and the
// per-node order index. Restoring both reproduces the pre-mutation group
// exactly.
type siblingEntry struct {
	id         int64
	orderIndex int
}

// SiblingSnapshot is a copy-on-write capture of one sibling group, taken
// before an optimistic reorder and used solely for rollback.
type SiblingSnapshot struct {
	parentID *int64
	entries  []siblingEntry
}

// SnapshotSiblings captures the current state of a sibling group.
func (t *Tree) SnapshotSiblings(parentID *int64) *SiblingSnapshot {
	sibs := t.roots
	if parentID != nil {
		sibs = t.mustNode(*parentID).Children
	}
	snap := &SiblingSnapshot{parentID: parentID}
	for _, n := range sibs {
		snap.entries = append(snap.entries, siblingEntry{id: n.ID, orderIndex: n.OrderIndex})
	}
	return snap
}

// RestoreSiblings reverts a sibling group to a previously captured snapshot.
func (t *Tree) RestoreSiblings(snap *SiblingSnapshot) {
	ordered := make([]*Node, 0, len(snap.entries))
	for _, e := range snap.entries {
		n := t.mustNode(e.id)
		n.OrderIndex = e.orderIndex
		ordered = append(ordered, n)
	}
	t.ReplaceSiblingGroup(snap.parentID, ordered)
}

// AddNode attaches a freshly created node, keeping its sibling group sorted.
func (t *Tree) AddNode(n Node) error {
	if _, ok := t.byID[n.ID]; ok {
		return fmt.Errorf("tree: node %d already exists", n.ID)
	}
	nn := n
	nn.Children = nil
	if nn.ParentID != nil {
		p, ok := t.byID[*nn.ParentID]
		if !ok {
			return &MalformedTreeError{NodeID: nn.ID, ParentID: *nn.ParentID}
		}
		p.Children = append(p.Children, &nn)
		sortSiblings(p.Children)
	} else {
		t.roots = append(t.roots, &nn)
		sortSiblings(t.roots)
	}
	t.byID[nn.ID] = &nn
	return nil
}

// RemoveSubtree detaches a node and its whole subtree from the store.
// Deletion is confirm-first in this design, so this runs only after the
// backend acknowledged the delete.
func (t *Tree) RemoveSubtree(id int64) {
	n := t.mustNode(id)

	var drop func(*Node)
	drop = func(x *Node) {
		delete(t.byID, x.ID)
		delete(t.expanded, x.ID)
		if t.selected != nil && *t.selected == x.ID {
			t.selected = nil
		}
		for _, c := range x.Children {
			drop(c)
		}
	}
	drop(n)

	if n.ParentID == nil {
		t.roots = removeFrom(t.roots, id)
		return
	}
	if p, ok := t.byID[*n.ParentID]; ok {
		p.Children = removeFrom(p.Children, id)
	}
}

func removeFrom(sibs []*Node, id int64) []*Node {
	out := sibs[:0]
	for _, s := range sibs {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// Walk visits every node depth-first, siblings in OrderIndex order. This
// traversal order is the contract for search-match navigation.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range t.roots {
		walk(r, 0)
	}
}

// Select marks the node as current.
func (t *Tree) Select(id int64) {
	t.mustNode(id)
	t.selected = &id
}

func (t *Tree) ClearSelection() { t.selected = nil }

// Selected returns the current selection, if any.
func (t *Tree) Selected() (int64, bool) {
	if t.selected == nil {
		return 0, false
	}
	return *t.selected, true
}

func (t *Tree) IsExpanded(id int64) bool { return t.expanded[id] }

func (t *Tree) SetExpanded(id int64, expanded bool) {
	t.mustNode(id)
	if expanded {
		t.expanded[id] = true
		return
	}
	delete(t.expanded, id)
}

func (t *Tree) ToggleExpanded(id int64) {
	t.SetExpanded(id, !t.IsExpanded(id))
}

// ExpandAncestors force-opens every branch on the node's ancestor chain so
// the node itself becomes visible. It never collapses anything.
func (t *Tree) ExpandAncestors(id int64) {
	for _, aid := range t.AncestorChain(id) {
		t.expanded[aid] = true
	}
}

// ExpandedIDs returns the expanded set in ascending id order.
func (t *Tree) ExpandedIDs() []int64 {
	out := make([]int64, 0, len(t.expanded))
	for id := range t.expanded {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Modules flattens the tree back into wire form, in traversal order.
func (t *Tree) Modules(workspaceID int64) []model.ModuleNode {
	var out []model.ModuleNode
	t.Walk(func(n *Node, _ int) {
		out = append(out, model.ModuleNode{
			ID:            n.ID,
			WorkspaceID:   workspaceID,
			Name:          n.Name,
			ParentID:      n.ParentID,
			OrderIndex:    n.OrderIndex,
			IsLeafContent: n.IsLeafContent,
			Content:       n.Content,
		})
	})
	return out
}
