package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/backoffice/internal/domain"
)

// CouponStore persists coupons keyed by code.
type CouponStore struct {
	db *DB
}

const couponColumns = `code, service_id, title, short_description, description, amount,
	cumulative, removing_postage, enabled, expires_at, created_at`

func scanCoupon(row interface{ Scan(...any) error }) (*domain.Coupon, error) {
	var (
		c         domain.Coupon
		expiresAt sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&c.Code, &c.ServiceID, &c.Title, &c.ShortDescription, &c.Description, &c.Amount,
		&c.Cumulative, &c.RemovingPostage, &c.Enabled, &expiresAt, &createdAt,
	); err != nil {
		return nil, err
	}
	if expiresAt.Valid && expiresAt.String != "" {
		t, err := time.Parse(time.RFC3339, expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing expires_at of coupon %s: %w", c.Code, err)
		}
		c.ExpiresAt = &t
	}
	c.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return &c, nil
}

// Save inserts a coupon or replaces the one with the same code. CreatedAt
// is kept from the first insert.
func (s *CouponStore) Save(ctx context.Context, c *domain.Coupon) error {
	if strings.TrimSpace(c.Code) == "" {
		return domain.NewError(domain.CodeInvalidArgument, "coupon code is required")
	}
	if strings.TrimSpace(c.ServiceID) == "" {
		return domain.NewError(domain.CodeInvalidArgument, "coupon service id is required")
	}

	var expiresAt any
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO coupons (code, service_id, title, short_description, description, amount,
		                      cumulative, removing_postage, enabled, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		     service_id = excluded.service_id,
		     title = excluded.title,
		     short_description = excluded.short_description,
		     description = excluded.description,
		     amount = excluded.amount,
		     cumulative = excluded.cumulative,
		     removing_postage = excluded.removing_postage,
		     enabled = excluded.enabled,
		     expires_at = excluded.expires_at`,
		c.Code, c.ServiceID, c.Title, c.ShortDescription, c.Description, c.Amount,
		c.Cumulative, c.RemovingPostage, c.Enabled, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("saving coupon %s: %w", c.Code, err)
	}
	return nil
}

// Get returns a coupon by code.
func (s *CouponStore) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	c, err := scanCoupon(s.db.sql.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("coupon", code)
	}
	return c, err
}

// List returns all coupons ordered by code.
func (s *CouponStore) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := s.db.sql.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Delete removes a coupon.
func (s *CouponStore) Delete(ctx context.Context, code string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM coupons WHERE code = ?`, code)
	if err != nil {
		return err
	}
	return expectOneRow(res, "coupon", code)
}
