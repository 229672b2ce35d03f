// Package auth implements the credential-verification and session-token
// issuance workflow.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aerosense/aerosense-api/internal/domain"
	"github.com/aerosense/aerosense-api/internal/pkg/validate"
)

// LoginResult carries the session token and the reduced user view.
type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type LoginUser struct {
	ID       int64         `json:"id"`
	FullName string        `json:"fullName"`
	Email    string        `json:"email"`
	Profile  *LoginProfile `json:"profile"`
}

type LoginProfile struct {
	ID           int64   `json:"id"`
	ProfileImage string  `json:"profileImage"`
	Bio          *string `json:"bio"`
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
}

type tokenSigner interface {
	Sign(userID int64, email string) (string, error)
}

type service struct {
	users    userStore
	profiles profileStore
	signer   tokenSigner
}

type ServiceDeps struct {
	UserRepo    userStore
	ProfileRepo profileStore
	JWTProvider tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, profiles: deps.ProfileRepo, signer: deps.JWTProvider}
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same error so callers cannot tell which failed.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	token, err := s.signer.Sign(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	result := &LoginResult{
		Token: token,
		User:  LoginUser{ID: u.ID, FullName: u.FullName, Email: u.Email},
	}

	p, err := s.profiles.GetByUserID(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return result, nil
	}
	result.User.Profile = &LoginProfile{ID: p.ID, ProfileImage: p.ProfileImage, Bio: p.Bio}
	return result, nil
}
