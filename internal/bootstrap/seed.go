package bootstrap

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumo.kr/auragram/internal/model"
)

// SeedDefaultQuests inserts the built-in daily quests. Existing rows are left
// untouched so operators can tune rewards without the seed reverting them.
func SeedDefaultQuests(db *gorm.DB) error {
	quests := []model.DailyQuest{
		{Type: model.QuestPostCreate, Name: "글쓰기 달인", Description: "게시글을 작성해보세요", MaxCount: 3, BaseReward: 50, IsActive: true},
		{Type: model.QuestCommentCreate, Name: "소통 전문가", Description: "댓글을 작성해보세요", MaxCount: 5, BaseReward: 20, IsActive: true},
		{Type: model.QuestDailyLogin, Name: "일일 출석", Description: "매일 접속해보세요", MaxCount: 1, BaseReward: 30, IsActive: true},
		{Type: model.QuestLikeGive, Name: "좋아요 나누기", Description: "다른 사용자의 게시글에 좋아요를 눌러보세요", MaxCount: 10, BaseReward: 10, IsActive: true},
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoNothing: true,
	}).Create(&quests).Error
	if err != nil {
		return err
	}

	log.WithField("quests", len(quests)).Info("default quests seeded")
	return nil
}

// SeedAdminUser creates a development admin account. Call only outside
// production.
func SeedAdminUser(db *gorm.DB) error {
	const adminEmail = "admin@auragram.local"

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", adminEmail).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        adminEmail,
		PasswordHash: string(hashed),
		Name:         "admin",
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.WithField("email", adminEmail).Info("admin user seeded")
	return nil
}
