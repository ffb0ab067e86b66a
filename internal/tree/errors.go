package tree

import "fmt"

// MalformedTreeError reports a dangling parent reference in a full-tree load.
// The load is rejected wholesale; callers should refetch or show an empty state.
type MalformedTreeError struct {
	NodeID   int64
	ParentID int64
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed tree: node %d references unknown parent %d", e.NodeID, e.ParentID)
}
