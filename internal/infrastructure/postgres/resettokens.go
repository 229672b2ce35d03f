package postgres

import (
	"context"
	"time"

	"github.com/aerosense/aerosense-api/internal/domain"
)

// ResetTokenRepo persists the single password-reset slot per user.
type ResetTokenRepo struct {
	db DB
}

func NewResetTokenRepo(db DB) *ResetTokenRepo { return &ResetTokenRepo{db: db} }

const resetTokenColumns = `id, user_id, token, verification_token, expires_at, created_at, updated_at`

// Upsert starts a new reset cycle. An existing row for the user is
// overwritten, which also clears any verification token from a prior cycle.
func (r *ResetTokenRepo) Upsert(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token              = EXCLUDED.token,
		    expires_at         = EXCLUDED.expires_at,
		    verification_token = NULL,
		    created_at         = now(),
		    updated_at         = now()
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *ResetTokenRepo) GetByUserID(ctx context.Context, userID int64) (*domain.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+resetTokenColumns+` FROM password_reset_tokens WHERE user_id = $1
	`, userID)
	return scanResetToken(row)
}

// SetVerificationToken moves the cycle into its verified state.
func (r *ResetTokenRepo) SetVerificationToken(ctx context.Context, userID int64, token string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE password_reset_tokens
		SET verification_token = $1, updated_at = now()
		WHERE user_id = $2
	`, token, userID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByVerificationToken fetches the row only when the capability matches.
func (r *ResetTokenRepo) GetByVerificationToken(ctx context.Context, userID int64, token string) (*domain.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+resetTokenColumns+` FROM password_reset_tokens
		WHERE user_id = $1 AND verification_token = $2
	`, userID, token)
	return scanResetToken(row)
}

// Delete consumes the cycle. Deleting an absent row is not an error.
func (r *ResetTokenRepo) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return translate(err)
	}
	return nil
}

func scanResetToken(row rowScanner) (*domain.ResetToken, error) {
	t := &domain.ResetToken{}
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.VerificationToken, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}
