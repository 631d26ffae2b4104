package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T, db *gorm.DB) AuthService {
	t.Helper()

	return NewAuthService(
		repository.NewUserRepository(db),
		newAuraService(t, db),
		NewMeiliSearchService(nil),
		testSecret,
	)
}

func TestSignup(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, dto.SignupRequest{
		Email:    "mina@example.com",
		Password: "hunter22",
		Name:     "mina",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "mina", resp.User.Name)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.Equal(t, 0, resp.User.AuraBalance)

	// Password is stored hashed, never verbatim.
	var user model.User
	require.NoError(t, db.Where("email = ?", "mina@example.com").First(&user).Error)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	// The token subject is the user id.
	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), claims.Subject)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Signup(ctx, dto.SignupRequest{
			Email:    "mina@example.com",
			Password: "different",
			Name:     "impostor",
		})
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	ctx := context.Background()

	createTestQuest(t, db, model.QuestDailyLogin, 1, 30)

	_, err := svc.Signup(ctx, dto.SignupRequest{
		Email:    "mina@example.com",
		Password: "hunter22",
		Name:     "mina",
	})
	require.NoError(t, err)

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, dto.LoginRequest{Email: "mina@example.com", Password: "nope"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("unknown email rejected the same way", func(t *testing.T) {
		_, err := svc.Login(ctx, dto.LoginRequest{Email: "ghost@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("login counts attendance, signup does not", func(t *testing.T) {
		resp, err := svc.Login(ctx, dto.LoginRequest{Email: "mina@example.com", Password: "hunter22"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)

		var progress model.UserDailyProgress
		require.NoError(t, db.Where("user_id = ?", resp.User.ID).First(&progress).Error)
		assert.Equal(t, 1, progress.CurrentCount)
	})
}
