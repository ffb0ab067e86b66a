package mutate

import "errors"

var (
	// ErrInvalidMove rejects a drop outside the node's own sibling group.
	// Surfaced as a transient hint, not an application error.
	ErrInvalidMove = errors.New("only same-level reordering is supported")

	// ErrSavePending rejects a new reorder for a sibling group whose previous
	// reorder is still waiting on persistence.
	ErrSavePending = errors.New("previous reorder is still saving")

	// ErrLeafContent rejects creating children under a terminal content node.
	ErrLeafContent = errors.New("content nodes cannot have children")
)
