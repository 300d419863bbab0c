package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/backoffice/internal/domain"
)

// HookStore persists hooks.
type HookStore struct {
	db *DB
}

const hookColumns = `id, code, type, title, active, native, by_module, block`

func scanHook(row interface{ Scan(...any) error }) (*domain.Hook, error) {
	var h domain.Hook
	if err := row.Scan(&h.ID, &h.Code, &h.Type, &h.Title, &h.Active, &h.Native, &h.ByModule, &h.Block); err != nil {
		return nil, err
	}
	return &h, nil
}

func validateHook(h *domain.Hook) error {
	if strings.TrimSpace(h.Code) == "" {
		return domain.NewError(domain.CodeInvalidArgument, "hook code is required")
	}
	if h.Type == "" {
		h.Type = domain.HookTypeFront
	}
	if !h.Type.Valid() {
		return domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("invalid hook type %q", h.Type))
	}
	return nil
}

// Create inserts a hook and sets its ID.
func (s *HookStore) Create(ctx context.Context, h *domain.Hook) error {
	if err := validateHook(h); err != nil {
		return err
	}

	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO hooks (code, type, title, active, native, by_module, block)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.Code, h.Type, h.Title, h.Active, h.Native, h.ByModule, h.Block,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.CodeAlreadyExists, fmt.Sprintf("hook %q already exists", h.Code))
		}
		return fmt.Errorf("creating hook %s: %w", h.Code, err)
	}
	h.ID, err = res.LastInsertId()
	return err
}

// Get returns a hook by ID.
func (s *HookStore) Get(ctx context.Context, id int64) (*domain.Hook, error) {
	h, err := scanHook(s.db.sql.QueryRowContext(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("hook", id)
	}
	return h, err
}

// GetByCode returns a hook by code.
func (s *HookStore) GetByCode(ctx context.Context, code string) (*domain.Hook, error) {
	h, err := scanHook(s.db.sql.QueryRowContext(ctx,
		`SELECT `+hookColumns+` FROM hooks WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("hook", code)
	}
	return h, err
}

// List returns all hooks ordered by code.
func (s *HookStore) List(ctx context.Context) ([]domain.Hook, error) {
	rows, err := s.db.sql.QueryContext(ctx, `SELECT `+hookColumns+` FROM hooks ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []domain.Hook
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, *h)
	}
	return hooks, rows.Err()
}

// Save overwrites every column of an existing hook.
func (s *HookStore) Save(ctx context.Context, h *domain.Hook) error {
	if err := validateHook(h); err != nil {
		return err
	}

	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE hooks SET code = ?, type = ?, title = ?, active = ?, native = ?, by_module = ?, block = ?,
		        updated_at = datetime('now')
		 WHERE id = ?`,
		h.Code, h.Type, h.Title, h.Active, h.Native, h.ByModule, h.Block, h.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.CodeAlreadyExists, fmt.Sprintf("hook %q already exists", h.Code))
		}
		return err
	}
	return expectOneRow(res, "hook", h.ID)
}

// Delete removes a hook. Its bindings and ignored entries cascade.
func (s *HookStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "hook", id)
}

// SetActive updates a hook's active flag.
func (s *HookStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE hooks SET active = ?, updated_at = datetime('now') WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "hook", id)
}
