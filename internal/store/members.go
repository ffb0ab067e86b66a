package store

import (
	"context"

	"github.com/google/uuid"

	"modhub/internal/model"
)

// InviteMember adds a member with a fresh invite token. The token is cleared
// when the invitation is accepted.
func (s *Store) InviteMember(ctx context.Context, workspaceID int64, name, email string, role model.MemberRole) (*model.Member, error) {
	if _, err := s.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	now := nowUnixMS()
	token := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members (workspace_id, name, email, role, invite_token, created_at_unixms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		workspaceID, name, email, string(role), token, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Member{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        name,
		Email:       email,
		Role:        role,
		InviteToken: token,
		CreatedAt:   msToTime(now),
	}, nil
}

// AcceptInvite resolves an outstanding invite token and clears it.
func (s *Store) AcceptInvite(ctx context.Context, token string) (*model.Member, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM members WHERE invite_token = ? AND invite_token != ''`, token).Scan(&id)
	if err != nil {
		return nil, notFound("invite", 0)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE members SET invite_token = '' WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return s.getMember(ctx, id)
}

func (s *Store) getMember(ctx context.Context, id int64) (*model.Member, error) {
	var (
		m    model.Member
		role string
		ms   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, email, role, invite_token, created_at_unixms
		 FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Email, &role, &m.InviteToken, &ms)
	if err != nil {
		return nil, notFound("member", id)
	}
	m.Role = model.MemberRole(role)
	m.CreatedAt = msToTime(ms)
	return &m, nil
}

func (s *Store) ListMembers(ctx context.Context, workspaceID int64) ([]model.Member, error) {
	if _, err := s.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, email, role, invite_token, created_at_unixms
		 FROM members WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var (
			m    model.Member
			role string
			ms   int64
		)
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Email, &role, &m.InviteToken, &ms); err != nil {
			return nil, err
		}
		m.Role = model.MemberRole(role)
		m.CreatedAt = msToTime(ms)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) RemoveMember(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("member", id)
	}
	return nil
}
