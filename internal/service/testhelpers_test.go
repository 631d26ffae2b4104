package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lumo.kr/auragram/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Post{},
		&model.Photo{},
		&model.Tag{},
		&model.Collection{},
		&model.Comment{},
		&model.PostLike{},
		&model.Bookmark{},
		&model.PostExposure{},
		&model.PostView{},
		&model.DailyQuest{},
		&model.UserDailyProgress{},
		&model.AuraTransaction{},
		&model.AuraStats{},
		&model.Notification{},
		&model.Gallery{},
		&model.GallerySlot{},
		&model.Artwork{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, balance int) *model.User {
	t.Helper()

	user := &model.User{
		Email:           name + "@example.com",
		Name:            name,
		Role:            model.RoleUser,
		AuraBalance:     balance,
		TotalAuraEarned: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestQuest(t *testing.T, db *gorm.DB, questType string, maxCount, baseReward int) *model.DailyQuest {
	t.Helper()

	quest := &model.DailyQuest{
		Type:        questType,
		Name:        questType,
		Description: questType,
		MaxCount:    maxCount,
		BaseReward:  baseReward,
		IsActive:    true,
	}
	require.NoError(t, db.Create(quest).Error)
	return quest
}

func fixedTime() time.Time {
	return time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
}
