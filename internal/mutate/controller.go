package mutate

import (
	"context"
	"fmt"

	"modhub/internal/model"
	"modhub/internal/tree"
)

// Persister is the narrow persistence contract the controller drives.
// PersistSiblingOrder must be idempotent: replaying the same pairs after an
// ambiguous network failure is safe.
type Persister interface {
	PersistSiblingOrder(ctx context.Context, updates []model.OrderUpdate) error
	CreateNode(ctx context.Context, parentID *int64, name string, isLeafContent bool) (*model.ModuleNode, error)
	DeleteNode(ctx context.Context, id int64) error
}

// Op is one in-flight optimistic reorder: the local change has been applied,
// persistence is outstanding, and the snapshot can restore the pre-mutation
// sibling group if persistence fails.
type Op struct {
	ID       int64
	NodeID   int64
	GroupKey string
	Updates  []model.OrderUpdate

	snap     *tree.SiblingSnapshot
	resolved bool
}

// Outcome reports how a reorder resolved.
type Outcome struct {
	OpID       int64
	RolledBack bool
	Err        error
}

// Controller orchestrates structural mutations against a single Tree.
//
// Reorders are optimistic: Validate -> Snapshot -> Apply locally -> Persist ->
// Resolve (discard snapshot on success, restore it on failure). Creation and
// deletion are confirm-first: the store is only touched after the backend
// acknowledged the call.
//
// The controller (plus Tree.Load) is the tree's only writer; everything runs
// on the caller's event loop, which is what makes snapshot/restore safe.
type Controller struct {
	tree      *tree.Tree
	persister Persister

	nextOpID int64
	inflight map[string]*Op // sibling-group key -> unresolved op
	ops      map[int64]*Op
}

func NewController(t *tree.Tree, p Persister) *Controller {
	return &Controller{
		tree:      t,
		persister: p,
		inflight:  map[string]*Op{},
		ops:       map[int64]*Op{},
	}
}

func groupKey(parentID *int64) string {
	if parentID == nil {
		return "root"
	}
	return fmt.Sprintf("p:%d", *parentID)
}

// Probe is the provisional validity check run while a drag is in progress.
// It never mutates anything; it only drives the drop affordance.
func (c *Controller) Probe(nodeID int64, dst *tree.Slot) tree.Verdict {
	return tree.ValidateMove(c.tree.SlotOf(nodeID), dst)
}

// Saving reports whether a reorder for the sibling group is still persisting.
// The presentation layer disables further reorder gestures on that group
// while this is true; unrelated groups are unaffected.
func (c *Controller) Saving(parentID *int64) bool {
	_, ok := c.inflight[groupKey(parentID)]
	return ok
}

// BeginReorder validates a drop and, when legal, applies it locally and
// registers the pending persistence round-trip.
//
// Returns (nil, nil) for a same-index drop: nothing changed, nothing to
// persist. Returns ErrInvalidMove for cross-parent drops and ErrSavePending
// when the group already has an unresolved op; in both cases the store is
// untouched and no persistence call may be issued.
//
// The caller issues PersistSiblingOrder with op.Updates (typically off the
// event loop) and feeds the result back through Resolve.
func (c *Controller) BeginReorder(nodeID int64, dst *tree.Slot, insertAt int) (*Op, error) {
	src := c.tree.SlotOf(nodeID)
	switch tree.ValidateMove(src, dst) {
	case tree.MoveOK:
	default:
		return nil, ErrInvalidMove
	}

	parent, sibs := c.tree.FindParentAndSiblings(nodeID)
	var parentID *int64
	if parent != nil {
		id := parent.ID
		parentID = &id
	}

	cur := -1
	for i, s := range sibs {
		if s.ID == nodeID {
			cur = i
			break
		}
	}
	if cur < 0 {
		panic(fmt.Sprintf("mutate: node %d missing from its own sibling group", nodeID))
	}

	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(sibs)-1 {
		insertAt = len(sibs) - 1
	}
	if insertAt == cur {
		// Dropped where it already was: a no-op, not an error.
		return nil, nil
	}

	key := groupKey(parentID)
	if _, pending := c.inflight[key]; pending {
		return nil, ErrSavePending
	}

	snap := c.tree.SnapshotSiblings(parentID)

	reordered := make([]*tree.Node, 0, len(sibs))
	for i, s := range sibs {
		if i != cur {
			reordered = append(reordered, s)
		}
	}
	moved := sibs[cur]
	reordered = append(reordered, nil)
	copy(reordered[insertAt+1:], reordered[insertAt:])
	reordered[insertAt] = moved

	updates := tree.AllocateOrderIndexes(reordered)
	c.tree.ReplaceSiblingGroup(parentID, reordered)

	c.nextOpID++
	op := &Op{
		ID:       c.nextOpID,
		NodeID:   nodeID,
		GroupKey: key,
		Updates:  updates,
		snap:     snap,
	}
	c.inflight[key] = op
	c.ops[op.ID] = op
	return op, nil
}

// Persist issues the sibling-order call for an op. Split from BeginReorder so
// the presentation layer can run it asynchronously while the local change is
// already visible.
func (c *Controller) Persist(ctx context.Context, op *Op) error {
	return c.persister.PersistSiblingOrder(ctx, op.Updates)
}

// Resolve finishes an op exactly once. Success discards the snapshot;
// failure restores the sibling group to its pre-mutation state. Duplicate or
// unknown resolutions are ignored, so an op can never resolve twice.
func (c *Controller) Resolve(opID int64, err error) Outcome {
	op, ok := c.ops[opID]
	if !ok || op.resolved {
		return Outcome{OpID: opID}
	}
	op.resolved = true
	delete(c.inflight, op.GroupKey)
	delete(c.ops, opID)

	if err != nil {
		c.tree.RestoreSiblings(op.snap)
		return Outcome{OpID: opID, RolledBack: true, Err: err}
	}
	return Outcome{OpID: opID}
}

// CreateNode is confirm-first: the backend call runs before any local
// mutation, and the store only changes when it succeeds.
func (c *Controller) CreateNode(ctx context.Context, parentID *int64, name string, isLeafContent bool) (*tree.Node, error) {
	if parentID != nil {
		p, ok := c.tree.FindNode(*parentID)
		if !ok {
			return nil, fmt.Errorf("create under unknown parent %d", *parentID)
		}
		if p.IsLeafContent {
			return nil, ErrLeafContent
		}
	}
	created, err := c.persister.CreateNode(ctx, parentID, name, isLeafContent)
	if err != nil {
		return nil, err
	}
	n := tree.Node{
		ID:            created.ID,
		Name:          created.Name,
		ParentID:      created.ParentID,
		OrderIndex:    created.OrderIndex,
		IsLeafContent: created.IsLeafContent,
		Content:       created.Content,
	}
	if err := c.tree.AddNode(n); err != nil {
		return nil, err
	}
	added, _ := c.tree.FindNode(created.ID)
	return added, nil
}

// DeleteNode is confirm-first: the subtree leaves the store only after the
// backend acknowledged the deletion.
func (c *Controller) DeleteNode(ctx context.Context, id int64) error {
	if _, ok := c.tree.FindNode(id); !ok {
		return fmt.Errorf("delete unknown node %d", id)
	}
	if err := c.persister.DeleteNode(ctx, id); err != nil {
		return err
	}
	c.tree.RemoveSubtree(id)
	return nil
}
