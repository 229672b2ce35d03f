// Package user implements the registration workflow and authenticated
// account operations.
package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aerosense/aerosense-api/internal/domain"
	"github.com/aerosense/aerosense-api/internal/pkg/validate"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.Profile, error)
	GetSelf(ctx context.Context, userID int64) (*SelfView, error)
	ChangePassword(ctx context.Context, userID int64, req domain.ChangePasswordRequest) error
}

// SelfView is the authenticated user's own account view.
type SelfView struct {
	ID       int64        `json:"id"`
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Profile  *ProfileView `json:"profile"`
}

type ProfileView struct {
	ID           int64   `json:"id"`
	ProfileImage string  `json:"profileImage"`
	Bio          *string `json:"bio"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	CreateWithProfile(ctx context.Context, u *domain.User) (*domain.User, *domain.Profile, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
}

type service struct {
	users    userStore
	profiles profileStore
}

type ServiceDeps struct {
	UserRepo    userStore
	ProfileRepo profileStore
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, profiles: deps.ProfileRepo}
}

// Register creates the account and its profile atomically. The existence
// pre-check is advisory; the unique constraint on email is what actually
// prevents duplicates under concurrent registration.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.Profile, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	u := &domain.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
	}
	u, p, err := s.users.CreateWithProfile(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		return nil, nil, err
	}
	return u, p, nil
}

// GetSelf returns the user with their profile attached. A missing profile is
// tolerated and reported as null, not an error.
func (s *service) GetSelf(ctx context.Context, userID int64) (*SelfView, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	view := &SelfView{ID: u.ID, FullName: u.FullName, Email: u.Email}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return view, nil
	}
	view.Profile = &ProfileView{
		ID:           p.ID,
		ProfileImage: p.ProfileImage,
		Bio:          p.Bio,
		Phone:        p.Phone,
		Address:      p.Address,
	}
	return view, nil
}

func (s *service) ChangePassword(ctx context.Context, userID int64, req domain.ChangePasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}
