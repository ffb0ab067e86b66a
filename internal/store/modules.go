package store

import (
	"context"
	"database/sql"
	"errors"

	"modhub/internal/model"
)

const orderStep = 10

// ModulesForWorkspace loads the workspace's full module tree as a flat slice
// ordered by (parent_id, order_index), the shape tree.Load expects.
func (s *Store) ModulesForWorkspace(ctx context.Context, workspaceID int64) ([]model.ModuleNode, error) {
	if _, err := s.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, parent_id, name, order_index, is_leaf, content,
		        created_at_unixms, updated_at_unixms
		 FROM modules WHERE workspace_id = ?
		 ORDER BY parent_id IS NOT NULL, parent_id, order_index, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ModuleNode
	for rows.Next() {
		var (
			m       model.ModuleNode
			parent  sql.NullInt64
			created int64
			updated int64
		)
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &parent, &m.Name, &m.OrderIndex,
			&m.IsLeafContent, &m.Content, &created, &updated); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			m.ParentID = &p
		}
		m.CreatedAt = msToTime(created)
		m.UpdatedAt = msToTime(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetModule(ctx context.Context, id int64) (*model.ModuleNode, error) {
	var (
		m       model.ModuleNode
		parent  sql.NullInt64
		created int64
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, parent_id, name, order_index, is_leaf, content,
		        created_at_unixms, updated_at_unixms
		 FROM modules WHERE id = ?`, id).
		Scan(&m.ID, &m.WorkspaceID, &parent, &m.Name, &m.OrderIndex,
			&m.IsLeafContent, &m.Content, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("module", id)
	}
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.Int64
		m.ParentID = &p
	}
	m.CreatedAt = msToTime(created)
	m.UpdatedAt = msToTime(updated)
	return &m, nil
}

// CreateModule appends a module to the end of its sibling group: new nodes get
// the group's max order index plus one step.
func (s *Store) CreateModule(ctx context.Context, workspaceID int64, parentID *int64, name string, isLeafContent bool) (*model.ModuleNode, error) {
	if _, err := s.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.GetModule(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.WorkspaceID != workspaceID {
			return nil, notFound("module", *parentID)
		}
		if parent.IsLeafContent {
			return nil, ErrLeafParent
		}
	}

	var maxOrder int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index), 0) FROM modules WHERE workspace_id = ? AND parent_id IS ?`,
		workspaceID, parentID).Scan(&maxOrder)
	if err != nil {
		return nil, err
	}

	now := nowUnixMS()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO modules (workspace_id, parent_id, name, order_index, is_leaf, content,
		                      created_at_unixms, updated_at_unixms)
		 VALUES (?, ?, ?, ?, ?, '', ?, ?)`,
		workspaceID, parentID, name, maxOrder+orderStep, isLeafContent, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("module", id).Int64("workspace", workspaceID).Str("name", name).Msg("module created")
	return &model.ModuleNode{
		ID:            id,
		WorkspaceID:   workspaceID,
		Name:          name,
		ParentID:      parentID,
		OrderIndex:    maxOrder + orderStep,
		IsLeafContent: isLeafContent,
		CreatedAt:     msToTime(now),
		UpdatedAt:     msToTime(now),
	}, nil
}

// DeleteModule removes the module and its whole subtree.
func (s *Store) DeleteModule(ctx context.Context, id int64) error {
	if _, err := s.GetModule(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`WITH RECURSIVE subtree(id) AS (
			SELECT id FROM modules WHERE id = ?
			UNION ALL
			SELECT m.id FROM modules m JOIN subtree ON m.parent_id = subtree.id
		 )
		 DELETE FROM modules WHERE id IN (SELECT id FROM subtree)`, id)
	if err == nil {
		s.log.Info().Int64("module", id).Msg("module subtree deleted")
	}
	return err
}

func (s *Store) SetModuleContent(ctx context.Context, id int64, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE modules SET content = ?, updated_at_unixms = ? WHERE id = ?`,
		content, nowUnixMS(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("module", id)
	}
	return nil
}

// ReorderModules applies one sibling-group reorder in a single transaction.
// Every node must exist in the workspace, all nodes must share one parent, and
// the payload must name the whole sibling group; otherwise nothing is written.
// Re-applying already-applied pairs succeeds, which makes client retries after
// ambiguous failures safe.
func (s *Store) ReorderModules(ctx context.Context, workspaceID int64, updates []model.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var groupParent sql.NullInt64
	seen := make(map[int64]bool, len(updates))
	for i, u := range updates {
		var (
			ws     int64
			parent sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT workspace_id, parent_id FROM modules WHERE id = ?`, u.NodeID).
			Scan(&ws, &parent)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("module", u.NodeID)
		}
		if err != nil {
			return err
		}
		if ws != workspaceID {
			return notFound("module", u.NodeID)
		}
		if i == 0 {
			groupParent = parent
		} else if parent.Valid != groupParent.Valid || (parent.Valid && parent.Int64 != groupParent.Int64) {
			return ErrCrossParent
		}
		seen[u.NodeID] = true
	}

	// A partial payload would leave the unlisted siblings with stale, possibly
	// colliding order indexes.
	var groupSize int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM modules WHERE workspace_id = ? AND parent_id IS ?`,
		workspaceID, groupParent).Scan(&groupSize); err != nil {
		return err
	}
	if len(seen) != groupSize {
		return ErrIncompleteGroup
	}

	now := nowUnixMS()
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE modules SET order_index = ?, updated_at_unixms = ? WHERE id = ?`,
			u.OrderIndex, now, u.NodeID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().Int64("workspace", workspaceID).Int("nodes", len(updates)).Msg("sibling group reordered")
	return nil
}
