package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/backoffice/internal/domain"
)

// ModuleStore persists modules.
type ModuleStore struct {
	db *DB
}

const moduleColumns = `id, code, title, version, active, position`

func scanModule(row interface{ Scan(...any) error }) (*domain.Module, error) {
	var m domain.Module
	if err := row.Scan(&m.ID, &m.Code, &m.Title, &m.Version, &m.Active, &m.Position); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a module at the end of the module list and sets its ID.
func (s *ModuleStore) Create(ctx context.Context, m *domain.Module) error {
	if strings.TrimSpace(m.Code) == "" {
		return domain.NewError(domain.CodeInvalidArgument, "module code is required")
	}

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM modules`,
		).Scan(&m.Position); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO modules (code, title, version, active, position) VALUES (?, ?, ?, ?, ?)`,
			m.Code, m.Title, m.Version, m.Active, m.Position,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewError(domain.CodeAlreadyExists, fmt.Sprintf("module %q already exists", m.Code))
			}
			return err
		}
		m.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return fmt.Errorf("creating module %s: %w", m.Code, err)
	}
	return nil
}

// Get returns a module by ID.
func (s *ModuleStore) Get(ctx context.Context, id int64) (*domain.Module, error) {
	m, err := scanModule(s.db.sql.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("module", id)
	}
	return m, err
}

// GetByCode returns a module by code.
func (s *ModuleStore) GetByCode(ctx context.Context, code string) (*domain.Module, error) {
	m, err := scanModule(s.db.sql.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("module", code)
	}
	return m, err
}

// List returns all modules ordered by position.
func (s *ModuleStore) List(ctx context.Context) ([]domain.Module, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT `+moduleColumns+` FROM modules ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []domain.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *m)
	}
	return modules, rows.Err()
}

// SetActive updates a module's active flag.
func (s *ModuleStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE modules SET active = ?, updated_at = datetime('now') WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "module", id)
}

// Delete removes a module. Its bindings and ignored entries cascade.
func (s *ModuleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "module", id)
}

func expectOneRow(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
