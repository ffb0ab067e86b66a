package store

import (
	"context"
	"database/sql"
	"errors"

	"modhub/internal/model"
)

func (s *Store) CreateWorkspace(ctx context.Context, name, slug, createdBy string) (*model.Workspace, error) {
	now := nowUnixMS()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (name, slug, created_by, created_at_unixms) VALUES (?, ?, ?, ?)`,
		name, slug, createdBy, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("workspace", id).Str("name", name).Msg("workspace created")
	return &model.Workspace{ID: id, Name: name, Slug: slug, CreatedBy: createdBy, CreatedAt: msToTime(now)}, nil
}

func (s *Store) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, slug, created_by, archived, created_at_unixms
		 FROM workspaces WHERE archived = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Workspace
	for rows.Next() {
		var (
			w  model.Workspace
			ms int64
		)
		if err := rows.Scan(&w.ID, &w.Name, &w.Slug, &w.CreatedBy, &w.Archived, &ms); err != nil {
			return nil, err
		}
		w.CreatedAt = msToTime(ms)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) GetWorkspace(ctx context.Context, id int64) (*model.Workspace, error) {
	var (
		w  model.Workspace
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_by, archived, created_at_unixms FROM workspaces WHERE id = ?`, id).
		Scan(&w.ID, &w.Name, &w.Slug, &w.CreatedBy, &w.Archived, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("workspace", id)
	}
	if err != nil {
		return nil, err
	}
	w.CreatedAt = msToTime(ms)
	return &w, nil
}

// ArchiveWorkspace hides the workspace from listings without destroying its
// modules.
func (s *Store) ArchiveWorkspace(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE workspaces SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("workspace", id)
	}
	return nil
}
