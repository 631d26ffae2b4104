package service

import (
	"context"
	"encoding/json"
	"io"

	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
	"lumo.kr/auragram/pkg/storage"
)

type UpdateProfileInput struct {
	Name            *string `json:"name" binding:"omitempty,max=50"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error)
	UpdateNotificationSettings(ctx context.Context, userID uint, settings model.NotificationSettings) error
	UploadProfileImage(ctx context.Context, userID uint, r io.Reader, filename string) (string, error)
}

type userService struct {
	userRepo repository.UserRepository
	meili    MeiliSearchService
	images   storage.ImageStorage
}

func NewUserService(userRepo repository.UserRepository, meili MeiliSearchService, images storage.ImageStorage) UserService {
	return &userService{userRepo: userRepo, meili: meili, images: images}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*model.User, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperror.ErrInvalidInput
		}
		updates["name"] = *input.Name
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.ProfileImageURL != nil {
		updates["profile_image_url"] = *input.ProfileImageURL
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.meili.IndexUser(user); err != nil {
		log.WithError(err).Warn("user index sync failed")
	}
	return user, nil
}

// UpdateNotificationSettings merges the new settings into the preferences
// blob, keeping any unrelated preference sections intact.
func (s *userService) UpdateNotificationSettings(ctx context.Context, userID uint, settings model.NotificationSettings) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	prefs := map[string]json.RawMessage{}
	if len(user.Preferences) > 0 {
		if err := json.Unmarshal(user.Preferences, &prefs); err != nil {
			prefs = map[string]json.RawMessage{}
		}
	}

	section, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	prefs["notifications"] = section

	blob, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePreferences(ctx, userID, blob)
}

func (s *userService) UploadProfileImage(ctx context.Context, userID uint, r io.Reader, filename string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.images.UploadImage(ctx, r, "", filename)
	if err != nil {
		return "", err
	}

	if user.ProfileImageURL != nil && *user.ProfileImageURL != "" {
		if err := s.images.DeleteImage(ctx, *user.ProfileImageURL); err != nil {
			log.WithError(err).Warn("failed to delete previous profile image")
		}
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"profile_image_url": url}); err != nil {
		return "", err
	}
	return url, nil
}
