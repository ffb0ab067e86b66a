package model

import "time"

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

type Workspace struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Archived  bool      `json:"archived"`
}

type Member struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspaceId"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Role        MemberRole `json:"role"`
	// InviteToken is set while an invitation is outstanding and cleared on join.
	InviteToken string    `json:"inviteToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ModuleNode is the wire form of one node in a workspace's module tree.
// The in-memory tree (internal/tree) is built from a flat slice of these.
type ModuleNode struct {
	ID          int64  `json:"id"`
	WorkspaceID int64  `json:"workspaceId"`
	Name        string `json:"name"`
	ParentID    *int64 `json:"parentId,omitempty"`
	OrderIndex  int    `json:"orderIndex"`
	// IsLeafContent marks a terminal content node; no children may be created under it.
	IsLeafContent bool      `json:"isLeafContent"`
	Content       string    `json:"content,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OrderUpdate is one (node, orderIndex) pair of a sibling-group reorder.
// The reorder endpoint is idempotent: re-applying the same pairs is a no-op.
type OrderUpdate struct {
	NodeID     int64 `json:"nodeId"`
	OrderIndex int   `json:"orderIndex"`
}

type TableDef struct {
	ID       int64       `json:"id"`
	ModuleID int64       `json:"moduleId"`
	Name     string      `json:"name"`
	Comment  string      `json:"comment,omitempty"`
	Columns  []ColumnDef `json:"columns"`
}

type ColumnDef struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type InterfaceDef struct {
	ID       int64            `json:"id"`
	ModuleID int64            `json:"moduleId"`
	Method   string           `json:"method"`
	Path     string           `json:"path"`
	Summary  string           `json:"summary,omitempty"`
	Params   []InterfaceParam `json:"params,omitempty"`
}

type InterfaceParam struct {
	Name     string `json:"name"`
	In       string `json:"in"` // query|path|body|header
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Comment  string `json:"comment,omitempty"`
}
