package store

import (
	"context"

	"modhub/internal/model"
)

// ReplaceTables attaches table definitions to a module, replacing whatever was
// imported before. DDL re-imports are full refreshes, not merges.
func (s *Store) ReplaceTables(ctx context.Context, moduleID int64, defs []model.TableDef) ([]model.TableDef, error) {
	if _, err := s.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_tables WHERE module_id = ?`, moduleID); err != nil {
		return nil, err
	}
	out := make([]model.TableDef, 0, len(defs))
	for _, def := range defs {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO module_tables (module_id, name, comment) VALUES (?, ?, ?)`,
			moduleID, def.Name, def.Comment)
		if err != nil {
			return nil, err
		}
		tableID, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		for i, col := range def.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO module_columns (table_id, position, name, type, nullable, dflt, comment)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				tableID, i, col.Name, col.Type, col.Nullable, col.Default, col.Comment); err != nil {
				return nil, err
			}
		}
		stored := def
		stored.ID = tableID
		stored.ModuleID = moduleID
		out = append(out, stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.Info().Int64("module", moduleID).Int("tables", len(out)).Msg("tables imported")
	return out, nil
}

func (s *Store) ListTables(ctx context.Context, moduleID int64) ([]model.TableDef, error) {
	if _, err := s.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, comment FROM module_tables WHERE module_id = ? ORDER BY id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TableDef
	for rows.Next() {
		t := model.TableDef{ModuleID: moduleID}
		if err := rows.Scan(&t.ID, &t.Name, &t.Comment); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		cols, err := s.columnsForTable(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Columns = cols
	}
	return out, nil
}

func (s *Store) columnsForTable(ctx context.Context, tableID int64) ([]model.ColumnDef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, nullable, dflt, comment
		 FROM module_columns WHERE table_id = ? ORDER BY position`, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ColumnDef
	for rows.Next() {
		var c model.ColumnDef
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default, &c.Comment); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
