// Package profile implements profile reads, partial updates and image upload.
package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"

	"github.com/aerosense/aerosense-api/internal/domain"
	"github.com/aerosense/aerosense-api/internal/pkg/id"
)

type Service interface {
	Get(ctx context.Context, userID int64) (*domain.Profile, error)
	Update(ctx context.Context, userID int64, req domain.UpdateProfileRequest) (*domain.Profile, error)
	UpdateImage(ctx context.Context, userID int64, filename string, r io.Reader, contentType string) (*domain.Profile, string, error)
}

type profileStore interface {
	Create(ctx context.Context, userID int64) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
	Update(ctx context.Context, userID int64, req domain.UpdateProfileRequest) (*domain.Profile, error)
	UpdateImage(ctx context.Context, userID int64, image string) (*domain.Profile, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	profiles profileStore
	objects  objectStore
}

type ServiceDeps struct {
	ProfileRepo profileStore
	ObjectStore objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{profiles: deps.ProfileRepo, objects: deps.ObjectStore}
}

func (s *service) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// Update applies a partial update, creating the profile row first if the
// account somehow lost it.
func (s *service) Update(ctx context.Context, userID int64, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	p, err := s.profiles.Update(ctx, userID, req)
	if errors.Is(err, domain.ErrNotFound) {
		if _, err := s.profiles.Create(ctx, userID); err != nil {
			return nil, err
		}
		return s.profiles.Update(ctx, userID, req)
	}
	return p, err
}

// UpdateImage stores the uploaded image and points the profile at it. The
// previous image is removed best-effort once the new reference is durable.
func (s *service) UpdateImage(ctx context.Context, userID int64, filename string, r io.Reader, contentType string) (*domain.Profile, string, error) {
	old, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, "", err
		}
		if old, err = s.profiles.Create(ctx, userID); err != nil {
			return nil, "", err
		}
	}

	key := "profiles/" + id.New() + path.Ext(filename)
	url, err := s.objects.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, "", err
	}

	p, err := s.profiles.UpdateImage(ctx, userID, key)
	if err != nil {
		return nil, "", err
	}

	if old.ProfileImage != domain.DefaultProfileImage {
		if err := s.objects.Delete(ctx, old.ProfileImage); err != nil {
			slog.Warn("failed to delete previous profile image", "user_id", userID, "key", old.ProfileImage, "err", err)
		}
	}
	return p, url, nil
}
