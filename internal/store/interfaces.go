package store

import (
	"context"
	"encoding/json"

	"modhub/internal/model"
)

func (s *Store) CreateInterface(ctx context.Context, moduleID int64, def model.InterfaceDef) (*model.InterfaceDef, error) {
	if _, err := s.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	params, err := json.Marshal(def.Params)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO module_interfaces (module_id, method, path, summary, params_json)
		 VALUES (?, ?, ?, ?, ?)`,
		moduleID, def.Method, def.Path, def.Summary, string(params))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	def.ID = id
	def.ModuleID = moduleID
	return &def, nil
}

func (s *Store) ListInterfaces(ctx context.Context, moduleID int64) ([]model.InterfaceDef, error) {
	if _, err := s.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, method, path, summary, params_json
		 FROM module_interfaces WHERE module_id = ? ORDER BY id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InterfaceDef
	for rows.Next() {
		var (
			def    model.InterfaceDef
			params string
		)
		if err := rows.Scan(&def.ID, &def.Method, &def.Path, &def.Summary, &params); err != nil {
			return nil, err
		}
		def.ModuleID = moduleID
		if err := json.Unmarshal([]byte(params), &def.Params); err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}
