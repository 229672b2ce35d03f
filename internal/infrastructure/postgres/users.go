package postgres

import (
	"context"
	"fmt"

	"github.com/aerosense/aerosense-api/internal/domain"
)

// UserRepo persists account rows.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password, full_name, created_at, updated_at`

// CreateWithProfile inserts the user and its profile in a single transaction.
// If either insert fails the whole registration rolls back; the unique
// constraint on users.email is the authoritative duplicate guard.
func (r *UserRepo) CreateWithProfile(ctx context.Context, u *domain.User) (*domain.User, *domain.Profile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (email, password, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, u.Email, u.PasswordHash, u.FullName).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, nil, translate(err)
	}

	p := &domain.Profile{UserID: u.ID}
	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		RETURNING id, profile_image, created_at, updated_at
	`, u.ID).Scan(&p.ID, &p.ProfileImage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, nil, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return u, p, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// UpdatePassword overwrites the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = now() WHERE id = $2
	`, passwordHash, userID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}
