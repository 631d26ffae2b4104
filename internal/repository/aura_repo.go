package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/pkg/apperror"
)

// Sentinels for transfer legs so the service can map each failure to its own
// user-facing message.
var (
	ErrSenderNotFound    = errors.New("sender not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrNothingToClaim    = errors.New("no claimable rewards")
)

type AddAuraParams struct {
	UserID           uint
	Amount           int
	Type             string
	Description      *string
	QuestID          *uint
	RelatedPostID    *uint
	RelatedCommentID *uint
}

type ClaimRewardParams struct {
	UserID      uint
	QuestID     uint
	Day         time.Time
	MaxCount    int
	Amount      int
	Description string
	Now         time.Time
}

type AuraRepository interface {
	ListActiveQuests(ctx context.Context) ([]model.DailyQuest, error)
	FindActiveQuestByType(ctx context.Context, questType string) (*model.DailyQuest, error)
	FindActiveQuestByID(ctx context.Context, id uint) (*model.DailyQuest, error)

	IncrementProgress(ctx context.Context, userID, questID uint, day time.Time) (*model.UserDailyProgress, error)
	FindProgress(ctx context.Context, userID, questID uint, day time.Time) (*model.UserDailyProgress, error)
	ListProgressForDay(ctx context.Context, userID uint, day time.Time) ([]model.UserDailyProgress, error)

	AddAura(ctx context.Context, p AddAuraParams) (int, error)
	ClaimReward(ctx context.Context, p ClaimRewardParams) (int, error)
	Transfer(ctx context.Context, fromUserID, toUserID uint, amount int, transferID, message string) (int, error)
	ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]model.AuraTransaction, int64, error)
}

type auraRepository struct {
	db *gorm.DB
}

func NewAuraRepository(db *gorm.DB) AuraRepository {
	return &auraRepository{db: db}
}

func (r *auraRepository) ListActiveQuests(ctx context.Context) ([]model.DailyQuest, error) {
	var quests []model.DailyQuest
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&quests).Error
	return quests, err
}

func (r *auraRepository) FindActiveQuestByType(ctx context.Context, questType string) (*model.DailyQuest, error) {
	var quest model.DailyQuest
	err := r.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", questType, true).
		First(&quest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &quest, nil
}

func (r *auraRepository) FindActiveQuestByID(ctx context.Context, id uint) (*model.DailyQuest, error) {
	var quest model.DailyQuest
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&quest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &quest, nil
}

// IncrementProgress creates the day's row with current_count=1 or atomically
// bumps the existing counter. Concurrent increments must both land, so the
// whole operation is a single upsert statement.
func (r *auraRepository) IncrementProgress(ctx context.Context, userID, questID uint, day time.Time) (*model.UserDailyProgress, error) {
	progress := model.UserDailyProgress{
		UserID:       userID,
		QuestID:      questID,
		Date:         day,
		CurrentCount: 1,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "quest_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"current_count": gorm.Expr("user_daily_progresses.current_count + 1"),
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&progress).Error
	if err != nil {
		return nil, err
	}

	return r.FindProgress(ctx, userID, questID, day)
}

func (r *auraRepository) FindProgress(ctx context.Context, userID, questID uint, day time.Time) (*model.UserDailyProgress, error) {
	var progress model.UserDailyProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quest_id = ? AND date = ?", userID, questID, day).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

func (r *auraRepository) ListProgressForDay(ctx context.Context, userID uint, day time.Time) ([]model.UserDailyProgress, error) {
	var rows []model.UserDailyProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day).
		Find(&rows).Error
	return rows, err
}

// AddAura applies a signed amount to the user's balance and appends exactly
// one ledger entry, all inside one transaction. A debit that would take the
// balance below zero rolls back with ErrInsufficientBalance.
func (r *auraRepository) AddAura(ctx context.Context, p AddAuraParams) (int, error) {
	var newBalance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		newBalance, txErr = addAuraTx(tx, p)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func addAuraTx(tx *gorm.DB, p AddAuraParams) (int, error) {
	var user model.User
	if err := tx.Select("id", "aura_balance", "total_aura_earned").
		First(&user, p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.ErrNotFound
		}
		return 0, err
	}

	newBalance := user.AuraBalance + p.Amount
	if newBalance < 0 {
		return 0, apperror.ErrInsufficientBalance
	}

	updates := map[string]interface{}{"aura_balance": newBalance}
	if p.Amount > 0 {
		updates["total_aura_earned"] = user.TotalAuraEarned + p.Amount
	}
	if err := tx.Model(&model.User{}).Where("id = ?", p.UserID).Updates(updates).Error; err != nil {
		return 0, err
	}

	entry := model.AuraTransaction{
		UserID:           p.UserID,
		Amount:           p.Amount,
		BalanceAfter:     newBalance,
		Type:             p.Type,
		Description:      p.Description,
		QuestID:          p.QuestID,
		RelatedPostID:    p.RelatedPostID,
		RelatedCommentID: p.RelatedCommentID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	return newBalance, nil
}

// ClaimReward pays one reward unit and bumps rewards_received atomically.
// The availability check is repeated inside the transaction so concurrent
// claims can never pay past min(current_count, max_count).
func (r *auraRepository) ClaimReward(ctx context.Context, p ClaimRewardParams) (int, error) {
	var newBalance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var progress model.UserDailyProgress
		if err := tx.Where("user_id = ? AND quest_id = ? AND date = ?", p.UserID, p.QuestID, p.Day).
			First(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}

		capped := progress.CurrentCount
		if capped > p.MaxCount {
			capped = p.MaxCount
		}
		if capped-progress.RewardsReceived <= 0 {
			return ErrNothingToClaim
		}

		desc := p.Description
		balance, err := addAuraTx(tx, AddAuraParams{
			UserID:      p.UserID,
			Amount:      p.Amount,
			Type:        model.TxQuestReward,
			Description: &desc,
			QuestID:     &p.QuestID,
		})
		if err != nil {
			return err
		}
		newBalance = balance

		return tx.Model(&model.UserDailyProgress{}).
			Where("id = ?", progress.ID).
			Updates(map[string]interface{}{
				"rewards_received": gorm.Expr("rewards_received + 1"),
				"last_reward_at":   p.Now,
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Transfer moves amount between two users and appends the two correlated
// ledger legs in one transaction. No step is observable in isolation.
func (r *auraRepository) Transfer(ctx context.Context, fromUserID, toUserID uint, amount int, transferID, message string) (int, error) {
	var senderBalance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from model.User
		if err := tx.Select("id", "name", "aura_balance").First(&from, fromUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSenderNotFound
			}
			return err
		}
		if from.AuraBalance < amount {
			return apperror.ErrInsufficientBalance
		}

		var to model.User
		if err := tx.Select("id", "name", "aura_balance").First(&to, toUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipientNotFound
			}
			return err
		}

		fromNewBalance := from.AuraBalance - amount
		toNewBalance := to.AuraBalance + amount

		if err := tx.Model(&model.User{}).Where("id = ?", fromUserID).
			Update("aura_balance", fromNewBalance).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", toUserID).
			Update("aura_balance", toNewBalance).Error; err != nil {
			return err
		}

		sendDesc := fmt.Sprintf("%s에게 전송", to.Name)
		recvDesc := fmt.Sprintf("%s으로부터 수신", from.Name)
		if message != "" {
			sendDesc = fmt.Sprintf("%s에게 전송: %s", to.Name, message)
			recvDesc = fmt.Sprintf("%s으로부터 수신: %s", from.Name, message)
		}

		legs := []model.AuraTransaction{
			{
				UserID:       fromUserID,
				Amount:       -amount,
				BalanceAfter: fromNewBalance,
				Type:         model.TxTransferSend,
				Description:  &sendDesc,
				FromUserID:   &fromUserID,
				ToUserID:     &toUserID,
				TransferID:   &transferID,
			},
			{
				UserID:       toUserID,
				Amount:       amount,
				BalanceAfter: toNewBalance,
				Type:         model.TxTransferReceive,
				Description:  &recvDesc,
				FromUserID:   &fromUserID,
				ToUserID:     &toUserID,
				TransferID:   &transferID,
			},
		}
		if err := tx.Create(&legs).Error; err != nil {
			return err
		}

		senderBalance = fromNewBalance
		return nil
	})
	if err != nil {
		return 0, err
	}
	return senderBalance, nil
}

func (r *auraRepository) ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]model.AuraTransaction, int64, error) {
	var transactions []model.AuraTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AuraTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}
