package postgres

import (
	"context"

	"github.com/aerosense/aerosense-api/internal/domain"
)

// ProfileRepo persists profile rows. Row lifecycle is bound to the owning
// user via ON DELETE CASCADE.
type ProfileRepo struct {
	db DB
}

func NewProfileRepo(db DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `id, user_id, profile_image, bio, phone, address, created_at, updated_at`

// Create inserts an empty profile for the user. Used only by the
// self-healing update path; registration creates profiles transactionally.
func (r *ProfileRepo) Create(ctx context.Context, userID int64) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		RETURNING `+profileColumns, userID)
	return scanProfile(row)
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// Update applies a partial update; nil fields keep their current value.
func (r *ProfileRepo) Update(ctx context.Context, userID int64, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE profiles
		SET bio        = COALESCE($1, bio),
		    phone      = COALESCE($2, phone),
		    address    = COALESCE($3, address),
		    updated_at = now()
		WHERE user_id = $4
		RETURNING `+profileColumns, req.Bio, req.Phone, req.Address, userID)
	return scanProfile(row)
}

// UpdateImage replaces the stored image reference.
func (r *ProfileRepo) UpdateImage(ctx context.Context, userID int64, image string) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE profiles
		SET profile_image = $1, updated_at = now()
		WHERE user_id = $2
		RETURNING `+profileColumns, image, userID)
	return scanProfile(row)
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(&p.ID, &p.UserID, &p.ProfileImage, &p.Bio, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
