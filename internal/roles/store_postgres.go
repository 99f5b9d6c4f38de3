package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// bootstrapFlag is the name of the singleton settings row marking that the
// first identity has been elevated.
const bootstrapFlag = "initial_admin_assigned"

// PostgresStore persists role records in user_roles and the bootstrap flag in
// app_settings.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM user_roles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count role records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (*Record, error) {
	query := `
		SELECT uid, role, email, created_at
		FROM user_roles
		WHERE uid = $1
	`
	var record Record
	err := s.db.QueryRowContext(ctx, query, uid).Scan(&record.UID, &record.Role, &record.Email, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan role record: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) Put(ctx context.Context, record Record) error {
	query := `
		INSERT INTO user_roles (uid, role, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role, email = EXCLUDED.email
	`
	if _, err := s.db.ExecContext(ctx, query, record.UID, record.Role, record.Email, record.CreatedAt); err != nil {
		return fmt.Errorf("upsert role record: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetBootstrapComplete(ctx context.Context) error {
	query := `
		INSERT INTO app_settings (name, value, updated_at)
		VALUES ($1, 'true', now())
		ON CONFLICT (name) DO UPDATE SET value = 'true', updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, bootstrapFlag); err != nil {
		return fmt.Errorf("set bootstrap flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) BootstrapComplete(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE name = $1`, bootstrapFlag).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read bootstrap flag: %w", err)
	}
	return value == "true", nil
}
