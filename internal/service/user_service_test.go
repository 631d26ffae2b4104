package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

// fakeImageStorage records uploads and deletions instead of talking to the
// CDN.
type fakeImageStorage struct {
	uploaded []string
	deleted  []string
}

func (f *fakeImageStorage) UploadImage(_ context.Context, r io.Reader, _, fileName string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "https://cdn.example.com/" + fileName
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImageStorage) DeleteImage(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func newUserService(t *testing.T, db *gorm.DB, images *fakeImageStorage) UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(db), NewMeiliSearchService(nil), images)
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(t, db, &fakeImageStorage{})
	ctx := context.Background()

	user := createTestUser(t, db, "mina", 0)

	name := "mina2"
	bio := "painter"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "mina2", updated.Name)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "painter", *updated.Bio)

	t.Run("empty name rejected", func(t *testing.T) {
		empty := ""
		_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &empty})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("nil fields untouched", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{})
		require.NoError(t, err)
		assert.Equal(t, "mina2", got.Name)
	})
}

func TestUpdateNotificationSettings(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(t, db, &fakeImageStorage{})
	ctx := context.Background()

	user := createTestUser(t, db, "mina", 0)

	// Seed an unrelated preference section that must survive the merge.
	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("preferences", []byte(`{"theme":"dark"}`)).Error)

	require.NoError(t, svc.UpdateNotificationSettings(ctx, user.ID, model.NotificationSettings{
		NewFollowers: boolPtr(false),
	}))

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Contains(t, string(stored.Preferences), `"theme":"dark"`)

	settings := stored.NotificationSettings()
	require.NotNil(t, settings.NewFollowers)
	assert.False(t, *settings.NewFollowers)
	assert.Nil(t, settings.Comments)
}

func TestUploadProfileImage(t *testing.T) {
	db := setupTestDB(t)
	images := &fakeImageStorage{}
	svc := newUserService(t, db, images)
	ctx := context.Background()

	user := createTestUser(t, db, "mina", 0)

	url, err := svc.UploadProfileImage(ctx, user.ID, strings.NewReader("png-bytes"), "avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatar.png", url)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.ProfileImageURL)
	assert.Equal(t, url, *stored.ProfileImageURL)

	// A replacement removes the previous image.
	_, err = svc.UploadProfileImage(ctx, user.ID, strings.NewReader("png-bytes"), "avatar2.png")
	require.NoError(t, err)
	assert.Equal(t, []string{url}, images.deleted)
}
