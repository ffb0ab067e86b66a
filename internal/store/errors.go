package store

import (
	"errors"
	"fmt"
)

// NotFoundError identifies a lookup for an id the database does not have.
// The HTTP layer maps it to 404.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func notFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

var (
	// ErrCrossParent rejects a reorder payload whose nodes do not all share
	// one parent. Mapped to 409.
	ErrCrossParent = errors.New("reorder crosses sibling groups")

	// ErrLeafParent rejects creating a child under a terminal content node.
	ErrLeafParent = errors.New("content modules cannot have children")

	// ErrIncompleteGroup rejects a reorder payload that names only part of a
	// sibling group. Partial payloads could collide order indexes with the
	// unlisted siblings. Mapped to 400.
	ErrIncompleteGroup = errors.New("reorder must cover the whole sibling group")
)
