package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/backoffice/internal/domain"
)

// ModuleHookStore persists module hooks, ordered by position within a hook.
type ModuleHookStore struct {
	db *DB
}

const moduleHookColumns = `id, module_id, hook_id, classname, method, active, module_active, hook_active, position`

func scanModuleHook(row interface{ Scan(...any) error }) (*domain.ModuleHook, error) {
	var mh domain.ModuleHook
	if err := row.Scan(
		&mh.ID, &mh.ModuleID, &mh.HookID, &mh.Classname, &mh.Method,
		&mh.Active, &mh.ModuleActive, &mh.HookActive, &mh.Position,
	); err != nil {
		return nil, err
	}
	return &mh, nil
}

func collectModuleHooks(rows *sql.Rows) ([]domain.ModuleHook, error) {
	defer rows.Close()

	var out []domain.ModuleHook
	for rows.Next() {
		mh, err := scanModuleHook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *mh)
	}
	return out, rows.Err()
}

// Create inserts a binding and sets its ID.
func (s *ModuleHookStore) Create(ctx context.Context, mh *domain.ModuleHook) error {
	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO module_hooks (module_id, hook_id, classname, method, active, module_active, hook_active, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		mh.ModuleID, mh.HookID, mh.Classname, mh.Method,
		mh.Active, mh.ModuleActive, mh.HookActive, mh.Position,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.Wrap(domain.CodeNotFound, "module or hook does not exist", err)
		}
		return fmt.Errorf("creating module hook: %w", err)
	}
	mh.ID, err = res.LastInsertId()
	return err
}

// Get returns a binding by ID.
func (s *ModuleHookStore) Get(ctx context.Context, id int64) (*domain.ModuleHook, error) {
	mh, err := scanModuleHook(s.db.sql.QueryRowContext(ctx,
		`SELECT `+moduleHookColumns+` FROM module_hooks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("module hook", id)
	}
	return mh, err
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	ModuleID int64
	HookID   int64
}

// List returns bindings ordered by hook, then position.
func (s *ModuleHookStore) List(ctx context.Context, f Filter) ([]domain.ModuleHook, error) {
	query := `SELECT ` + moduleHookColumns + ` FROM module_hooks WHERE 1 = 1`
	var args []any
	if f.ModuleID != 0 {
		query += ` AND module_id = ?`
		args = append(args, f.ModuleID)
	}
	if f.HookID != 0 {
		query += ` AND hook_id = ?`
		args = append(args, f.HookID)
	}
	query += ` ORDER BY hook_id, position, id`

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectModuleHooks(rows)
}

// Save overwrites every column of an existing binding.
func (s *ModuleHookStore) Save(ctx context.Context, mh *domain.ModuleHook) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE module_hooks
		 SET module_id = ?, hook_id = ?, classname = ?, method = ?, active = ?,
		     module_active = ?, hook_active = ?, position = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		mh.ModuleID, mh.HookID, mh.Classname, mh.Method, mh.Active,
		mh.ModuleActive, mh.HookActive, mh.Position, mh.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.Wrap(domain.CodeNotFound, "module or hook does not exist", err)
		}
		return err
	}
	return expectOneRow(res, "module hook", mh.ID)
}

// Delete removes a binding.
func (s *ModuleHookStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM module_hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "module hook", id)
}

// LastPositionInHook returns the position after the last binding of the
// hook, or 1 when the hook has none.
func (s *ModuleHookStore) LastPositionInHook(ctx context.Context, hookID int64) (int, error) {
	var pos int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM module_hooks WHERE hook_id = ?`, hookID,
	).Scan(&pos)
	return pos, err
}

// SetModuleActive copies a module's active flag onto all its bindings and
// returns the number of rows touched.
func (s *ModuleHookStore) SetModuleActive(ctx context.Context, moduleID int64, active bool) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE module_hooks SET module_active = ?, updated_at = datetime('now') WHERE module_id = ?`,
		active, moduleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetHookActive copies a hook's active flag onto all its bindings and
// returns the number of rows touched.
func (s *ModuleHookStore) SetHookActive(ctx context.Context, hookID int64, active bool) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE module_hooks SET hook_active = ?, updated_at = datetime('now') WHERE hook_id = ?`,
		active, hookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByModule removes every binding of a module.
func (s *ModuleHookStore) DeleteByModule(ctx context.Context, moduleID int64) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM module_hooks WHERE module_id = ?`, moduleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Exists reports whether the module already binds classname::method to the hook.
func (s *ModuleHookStore) Exists(ctx context.Context, moduleID, hookID int64, classname, method string) (bool, error) {
	var count int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM module_hooks
		 WHERE module_id = ? AND hook_id = ? AND classname = ? AND method = ?`,
		moduleID, hookID, classname, method,
	).Scan(&count)
	return count > 0, err
}

// ListEnabledByHookCode returns the bindings of a hook that should run,
// in position order, together with their module codes.
func (s *ModuleHookStore) ListEnabledByHookCode(ctx context.Context, hookCode string) ([]domain.Listener, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT mh.id, mh.module_id, mh.hook_id, mh.classname, mh.method, mh.active,
		        mh.module_active, mh.hook_active, mh.position, m.code, h.code
		 FROM module_hooks mh
		 JOIN modules m ON m.id = mh.module_id
		 JOIN hooks h ON h.id = mh.hook_id
		 WHERE h.code = ? AND mh.active = 1 AND mh.module_active = 1 AND mh.hook_active = 1
		 ORDER BY mh.position, mh.id`,
		hookCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listener
	for rows.Next() {
		var l domain.Listener
		mh := &l.ModuleHook
		if err := rows.Scan(
			&mh.ID, &mh.ModuleID, &mh.HookID, &mh.Classname, &mh.Method,
			&mh.Active, &mh.ModuleActive, &mh.HookActive, &mh.Position,
			&l.ModuleCode, &l.HookCode,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdatePosition moves a binding within its hook. Up and down swap with the
// nearest neighbor; absolute shifts the rows in between by one.
func (s *ModuleHookStore) UpdatePosition(ctx context.Context, u domain.PositionUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var hookID int64
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT hook_id, position FROM module_hooks WHERE id = ?`, u.ObjectID,
		).Scan(&hookID, &current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("module hook", u.ObjectID)
		}
		if err != nil {
			return err
		}

		switch u.Mode {
		case domain.PositionUp:
			return swapWithNeighbor(ctx, tx, u.ObjectID, hookID, current,
				`SELECT id, position FROM module_hooks WHERE hook_id = ? AND position < ? ORDER BY position DESC LIMIT 1`)
		case domain.PositionDown:
			return swapWithNeighbor(ctx, tx, u.ObjectID, hookID, current,
				`SELECT id, position FROM module_hooks WHERE hook_id = ? AND position > ? ORDER BY position ASC LIMIT 1`)
		default:
			return moveAbsolute(ctx, tx, u.ObjectID, hookID, current, u.Position)
		}
	})
}

func swapWithNeighbor(ctx context.Context, q querier, id, hookID int64, current int, neighborQuery string) error {
	var neighborID int64
	var neighborPos int
	err := q.QueryRowContext(ctx, neighborQuery, hookID, current).Scan(&neighborID, &neighborPos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // already first or last
	}
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `UPDATE module_hooks SET position = ? WHERE id = ?`, current, neighborID); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `UPDATE module_hooks SET position = ? WHERE id = ?`, neighborPos, id)
	return err
}

func moveAbsolute(ctx context.Context, q querier, id, hookID int64, current, target int) error {
	switch {
	case target == current:
		return nil
	case target < current:
		if _, err := q.ExecContext(ctx,
			`UPDATE module_hooks SET position = position + 1
			 WHERE hook_id = ? AND position >= ? AND position < ?`,
			hookID, target, current); err != nil {
			return err
		}
	default:
		if _, err := q.ExecContext(ctx,
			`UPDATE module_hooks SET position = position - 1
			 WHERE hook_id = ? AND position > ? AND position <= ?`,
			hookID, current, target); err != nil {
			return err
		}
	}
	_, err := q.ExecContext(ctx, `UPDATE module_hooks SET position = ? WHERE id = ?`, target, id)
	return err
}
