package store

import (
	"context"

	"github.com/soyeahso/backoffice/internal/domain"
)

// IgnoredStore persists bindings an administrator removed.
type IgnoredStore struct {
	db *DB
}

// Add records an ignored binding. Recording the same binding twice is a no-op.
func (s *IgnoredStore) Add(ctx context.Context, ig domain.IgnoredModuleHook) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO ignored_module_hooks (module_id, hook_id, classname, method)
		 VALUES (?, ?, ?, ?)`,
		ig.ModuleID, ig.HookID, ig.Classname, ig.Method,
	)
	return err
}

// DeleteFor removes every ignored entry of a module on a hook and returns
// how many were removed.
func (s *IgnoredStore) DeleteFor(ctx context.Context, hookID, moduleID int64) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`DELETE FROM ignored_module_hooks WHERE hook_id = ? AND module_id = ?`, hookID, moduleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByModule returns the ignored bindings of a module.
func (s *IgnoredStore) ListByModule(ctx context.Context, moduleID int64) ([]domain.IgnoredModuleHook, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT module_id, hook_id, classname, method FROM ignored_module_hooks
		 WHERE module_id = ? ORDER BY hook_id, classname, method`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IgnoredModuleHook
	for rows.Next() {
		var ig domain.IgnoredModuleHook
		if err := rows.Scan(&ig.ModuleID, &ig.HookID, &ig.Classname, &ig.Method); err != nil {
			return nil, err
		}
		out = append(out, ig)
	}
	return out, rows.Err()
}

// IsIgnored reports whether the binding was removed by an administrator.
func (s *IgnoredStore) IsIgnored(ctx context.Context, ig domain.IgnoredModuleHook) (bool, error) {
	var count int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ignored_module_hooks
		 WHERE module_id = ? AND hook_id = ? AND classname = ? AND method = ?`,
		ig.ModuleID, ig.HookID, ig.Classname, ig.Method,
	).Scan(&count)
	return count > 0, err
}
