package api

import (
	"context"

	"modhub/internal/model"
	"modhub/internal/mutate"
)

// WorkspacePersister binds a Client to one workspace and satisfies
// mutate.Persister, so the mutation controller never sees workspace ids.
type WorkspacePersister struct {
	client      *Client
	workspaceID int64
}

var _ mutate.Persister = (*WorkspacePersister)(nil)

func NewWorkspacePersister(c *Client, workspaceID int64) *WorkspacePersister {
	return &WorkspacePersister{client: c, workspaceID: workspaceID}
}

func (p *WorkspacePersister) PersistSiblingOrder(ctx context.Context, updates []model.OrderUpdate) error {
	return p.client.PersistSiblingOrder(ctx, p.workspaceID, updates)
}

func (p *WorkspacePersister) CreateNode(ctx context.Context, parentID *int64, name string, isLeafContent bool) (*model.ModuleNode, error) {
	return p.client.CreateModule(ctx, p.workspaceID, parentID, name, isLeafContent)
}

func (p *WorkspacePersister) DeleteNode(ctx context.Context, id int64) error {
	return p.client.DeleteModule(ctx, id)
}
