package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"taskmanager/internal/auth"
	"taskmanager/internal/cache"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
	"taskmanager/internal/storage"
	"taskmanager/internal/validation"
)

const profileCacheTTL = 5 * time.Minute

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ProfileService reads and updates the caller's own user record.
type ProfileService interface {
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, update model.ProfileUpdate) error
	UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	UploadProfilePicture(ctx context.Context, userID uint, image []byte) (string, error)
}

type profileService struct {
	users          repository.UserRepository
	hasher         auth.PasswordHasher
	store          storage.ObjectStore
	cache          *cache.Client
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProfileService creates a new profile service. Uploads larger than maxUploadBytes are rejected.
func NewProfileService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	store storage.ObjectStore,
	cache *cache.Client,
	maxUploadBytes int64,
	logger *slog.Logger,
) ProfileService {
	return &profileService{
		users:          users,
		hasher:         hasher,
		store:          store,
		cache:          cache,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// GetProfile returns the user, served from cache when possible.
func (s *profileService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	key := profileCacheKey(userID)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var user model.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		s.logger.WarnContext(ctx, "dropping unreadable cached profile", "user_id", userID)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, key, data, profileCacheTTL)
	}
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uint, update model.ProfileUpdate) error {
	if update.Empty() {
		return apperrors.ErrNoFieldsToUpdate
	}
	if update.Firstname != nil && strings.TrimSpace(*update.Firstname) == "" {
		return apperrors.ErrFirstnameRequired
	}
	if update.Email != nil {
		if !validation.IsEmail(*update.Email) {
			return apperrors.ErrInvalidEmail
		}
		taken, err := s.users.EmailTaken(ctx, *update.Email, userID)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrEmailTaken
		}
	}

	if err := s.users.Update(ctx, userID, update); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *profileService) UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.ErrPasswordRequired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(currentPassword, user.PasswordHash) {
		return apperrors.ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.logger.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}

// UploadProfilePicture stores the image and records its URL on the user.
func (s *profileService) UploadProfilePicture(ctx context.Context, userID uint, image []byte) (string, error) {
	if len(image) == 0 {
		return "", apperrors.ErrImageRequired
	}
	if s.maxUploadBytes > 0 && int64(len(image)) > s.maxUploadBytes {
		return "", apperrors.ErrImageTooLarge
	}

	mtype := mimetype.Detect(image)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return "", apperrors.ErrUnsupportedImage
	}

	key := fmt.Sprintf("profile_pictures/%d/%s%s", userID, uuid.New(), mtype.Extension())
	url, err := s.store.Put(ctx, key, mtype.String(), image)
	if err != nil {
		return "", err
	}

	if err := s.users.Update(ctx, userID, model.ProfileUpdate{ProfilePicture: &url}); err != nil {
		return "", err
	}
	s.invalidate(ctx, userID)
	return url, nil
}

func (s *profileService) invalidate(ctx context.Context, userID uint) {
	_ = s.cache.Delete(ctx, profileCacheKey(userID))
}

func profileCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
