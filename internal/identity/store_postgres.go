package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// PostgresUserStore persists identity records in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (uid, email, password_hash, created_at)
		VALUES ($1, lower($2), $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, user.UID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT uid, email, password_hash, created_at
		FROM users
		WHERE email = lower($1)
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresUserStore) FindByUID(ctx context.Context, uid string) (*User, error) {
	query := `
		SELECT uid, email, password_hash, created_at
		FROM users
		WHERE uid = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uid))
}

func (s *PostgresUserStore) scanOne(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.UID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
