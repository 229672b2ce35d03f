// Package passwordreset implements the three-phase OTP password-reset
// protocol: request, verify, reset.
//
// Each account has at most one reset slot. A request overwrites the slot
// (invalidating any in-flight cycle), verify promotes it by attaching a
// verification token, and reset consumes it by deleting the row.
package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aerosense/aerosense-api/internal/domain"
	"github.com/aerosense/aerosense-api/internal/infrastructure/smtp"
	"github.com/aerosense/aerosense-api/internal/pkg/otp"
	pkgtoken "github.com/aerosense/aerosense-api/internal/pkg/token"
)

type Service interface {
	// Request starts a reset cycle. The response is uniform whether or not
	// the account exists, so the endpoint cannot be used for enumeration.
	Request(ctx context.Context, email string) error
	// Verify checks the OTP and returns the verification token required to
	// perform the actual password change.
	Verify(ctx context.Context, email, code string) (string, error)
	// Reset replaces the password and consumes the reset slot.
	Reset(ctx context.Context, email, password, verificationToken string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type resetTokenStore interface {
	Upsert(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetByUserID(ctx context.Context, userID int64) (*domain.ResetToken, error)
	SetVerificationToken(ctx context.Context, userID int64, token string) error
	GetByVerificationToken(ctx context.Context, userID int64, token string) (*domain.ResetToken, error)
	Delete(ctx context.Context, userID int64) error
}

type service struct {
	users  userStore
	tokens resetTokenStore
	mailer smtp.Mailer
	otpTTL time.Duration
}

type ServiceDeps struct {
	UserRepo       userStore
	ResetTokenRepo resetTokenStore
	Mailer         smtp.Mailer
	OTPTTL         time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.UserRepo,
		tokens: deps.ResetTokenRepo,
		mailer: deps.Mailer,
		otpTTL: deps.OTPTTL,
	}
}

func (s *service) Request(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same outcome as the success path; no account is ever created here.
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := otp.New()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.tokens.Upsert(ctx, u.ID, string(hash), time.Now().Add(s.otpTTL)); err != nil {
		return err
	}

	// Delivery is best-effort: the stored token is the source of truth, so a
	// mail failure must not fail the request.
	body := fmt.Sprintf("Your OTP for password reset is: %s. This OTP is valid for %d minutes.",
		code, int(s.otpTTL.Minutes()))
	if err := s.mailer.SendEmail(u.Email, "AeroSense Password Reset", body); err != nil {
		slog.Warn("failed to send password reset email", "user_id", u.ID, "err", err)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", fmt.Errorf("email and OTP are required: %w", domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user not found: %w", err)
	}
	t, err := s.tokens.GetByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("no OTP requested for this user: %w", domain.ErrNotFound)
		}
		return "", err
	}
	if t.Expired(time.Now()) {
		return "", fmt.Errorf("OTP has expired: %w", domain.ErrExpired)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.TokenHash), []byte(code)); err != nil {
		return "", fmt.Errorf("invalid OTP: %w", domain.ErrBadRequest)
	}

	verificationToken, err := pkgtoken.NewVerificationToken()
	if err != nil {
		return "", err
	}
	if err := s.tokens.SetVerificationToken(ctx, u.ID, verificationToken); err != nil {
		return "", err
	}
	return verificationToken, nil
}

func (s *service) Reset(ctx context.Context, email, password, verificationToken string) error {
	if email == "" || password == "" || verificationToken == "" {
		return fmt.Errorf("email, password and verification token are required: %w", domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	t, err := s.tokens.GetByVerificationToken(ctx, u.ID, verificationToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid verification token: %w", domain.ErrBadRequest)
		}
		return err
	}
	if t.Expired(time.Now()) {
		return fmt.Errorf("verification token has expired, request a new OTP: %w", domain.ErrExpired)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	// Consume the slot: the verification token is single-use.
	return s.tokens.Delete(ctx, u.ID)
}
