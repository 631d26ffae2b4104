package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
)

func newAuraService(t *testing.T, db *gorm.DB) *auraService {
	t.Helper()

	svc := NewAuraService(
		repository.NewAuraRepository(db),
		repository.NewAuraStatsRepository(db),
		repository.NewUserRepository(db),
	).(*auraService)
	svc.now = fixedTime
	return svc
}

func TestIncrementQuest(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", 0)
	quest := createTestQuest(t, db, model.QuestPostCreate, 3, 50)

	t.Run("counter keeps running past max", func(t *testing.T) {
		for i := 1; i <= 5; i++ {
			result, err := svc.IncrementQuest(ctx, user.ID, model.QuestPostCreate, nil, nil)
			require.NoError(t, err)
			assert.True(t, result.Progressed)
			assert.Equal(t, i, result.CurrentCount)
			assert.Equal(t, 3, result.MaxCount)
		}
	})

	t.Run("progress never pays rewards by itself", func(t *testing.T) {
		var u model.User
		require.NoError(t, db.First(&u, user.ID).Error)
		assert.Equal(t, 0, u.AuraBalance)
	})

	t.Run("unknown quest type is a no-op", func(t *testing.T) {
		result, err := svc.IncrementQuest(ctx, user.ID, "NO_SUCH_QUEST", nil, nil)
		require.NoError(t, err)
		assert.False(t, result.Progressed)
	})

	t.Run("inactive quest is a no-op", func(t *testing.T) {
		require.NoError(t, db.Model(quest).Update("is_active", false).Error)
		result, err := svc.IncrementQuest(ctx, user.ID, model.QuestPostCreate, nil, nil)
		require.NoError(t, err)
		assert.False(t, result.Progressed)
	})
}

func TestClaimReward(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, "bob", 0)
	quest := createTestQuest(t, db, model.QuestCommentCreate, 3, 20)

	t.Run("unknown quest", func(t *testing.T) {
		result, err := svc.ClaimReward(ctx, user.ID, 9999)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "존재하지 않는 퀘스트입니다.", result.Message)
	})

	t.Run("no progress today", func(t *testing.T) {
		result, err := svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "진행도가 없습니다.", result.Message)
	})

	t.Run("one unit per claim", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := svc.IncrementQuest(ctx, user.ID, model.QuestCommentCreate, nil, nil)
			require.NoError(t, err)
		}

		result, err := svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 20, result.Amount)
		assert.Empty(t, result.Message)

		var u model.User
		require.NoError(t, db.First(&u, user.ID).Error)
		assert.Equal(t, 20, u.AuraBalance)
		assert.Equal(t, 20, u.TotalAuraEarned)

		// Second unit still available.
		result, err = svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)

		require.NoError(t, db.First(&u, user.ID).Error)
		assert.Equal(t, 40, u.AuraBalance)
	})

	t.Run("rewards capped at max count", func(t *testing.T) {
		// Progress is 2, both units already paid.
		result, err := svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "받을 수 있는 보상이 없습니다.", result.Message)
	})

	t.Run("overshoot does not unlock extra rewards", func(t *testing.T) {
		// Run the counter to 5 on a 3-max quest; only one more unit is payable.
		for i := 0; i < 3; i++ {
			_, err := svc.IncrementQuest(ctx, user.ID, model.QuestCommentCreate, nil, nil)
			require.NoError(t, err)
		}

		result, err := svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)

		result, err = svc.ClaimReward(ctx, user.ID, quest.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "받을 수 있는 보상이 없습니다.", result.Message)
	})

	t.Run("ledger entries recorded", func(t *testing.T) {
		var entries []model.AuraTransaction
		require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, model.TxQuestReward).Find(&entries).Error)
		assert.Len(t, entries, 3)
		for _, entry := range entries {
			assert.Equal(t, 20, entry.Amount)
			require.NotNil(t, entry.QuestID)
			assert.Equal(t, quest.ID, *entry.QuestID)
		}
	})
}

func TestClaimRewardScaling(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, "carol", 0)
	quest := createTestQuest(t, db, model.QuestDailyLogin, 1, 30)

	yesterday := utcDay(fixedTime()).Add(-24 * time.Hour)
	require.NoError(t, db.Create(&model.AuraStats{
		Date:          yesterday,
		Period:        model.PeriodDaily,
		ScalingFactor: 0.9,
	}).Error)

	_, err := svc.IncrementQuest(ctx, user.ID, model.QuestDailyLogin, nil, nil)
	require.NoError(t, err)

	result, err := svc.ClaimReward(ctx, user.ID, quest.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 27, result.Amount) // round(30 * 0.9)
}

func TestGetQuestBoard(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, "dave", 0)
	createTestQuest(t, db, model.QuestPostCreate, 3, 50)
	createTestQuest(t, db, model.QuestLikeGive, 10, 10)

	for i := 0; i < 5; i++ {
		_, err := svc.IncrementQuest(ctx, user.ID, model.QuestPostCreate, nil, nil)
		require.NoError(t, err)
	}

	board, err := svc.GetQuestBoard(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)

	postQuest := board[0]
	assert.Equal(t, model.QuestPostCreate, postQuest.Type)
	assert.Equal(t, 3, postQuest.CurrentCount) // display is capped
	assert.Equal(t, 3, postQuest.AvailableRewards)
	assert.True(t, postQuest.IsCompleted)
	assert.True(t, postQuest.CanClaim)

	likeQuest := board[1]
	assert.Equal(t, model.QuestLikeGive, likeQuest.Type)
	assert.Equal(t, 0, likeQuest.CurrentCount)
	assert.False(t, likeQuest.IsCompleted)
	assert.False(t, likeQuest.CanClaim)
}

func TestTransfer(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	sender := createTestUser(t, db, "sender", 100)
	recipient := createTestUser(t, db, "recipient", 10)

	t.Run("amount must be positive", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{ToUserID: recipient.ID, Amount: 0})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "전송 금액은 0보다 커야 합니다.", result.Message)
	})

	t.Run("no self transfer", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{ToUserID: sender.ID, Amount: 10})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "자기 자신에게는 전송할 수 없습니다.", result.Message)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{ToUserID: recipient.ID, Amount: 1000})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "잔액이 부족합니다.", result.Message)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{ToUserID: 9999, Amount: 10})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "받는 사용자를 찾을 수 없습니다.", result.Message)
	})

	t.Run("unknown sender", func(t *testing.T) {
		result, err := svc.Transfer(ctx, 9999, dto.TransferRequest{ToUserID: recipient.ID, Amount: 10})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "보내는 사용자를 찾을 수 없습니다.", result.Message)
	})

	t.Run("successful transfer conserves aura", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{
			ToUserID: recipient.ID,
			Amount:   30,
			Message:  "선물",
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "전송이 완료되었습니다.", result.Message)
		require.NotNil(t, result.NewBalance)
		assert.Equal(t, 70, *result.NewBalance)
		require.NotNil(t, result.TransferID)

		var from, to model.User
		require.NoError(t, db.First(&from, sender.ID).Error)
		require.NoError(t, db.First(&to, recipient.ID).Error)
		assert.Equal(t, 70, from.AuraBalance)
		assert.Equal(t, 40, to.AuraBalance)

		// Receiving a transfer is not "earning": total stays put.
		assert.Equal(t, 10, to.TotalAuraEarned)

		var legs []model.AuraTransaction
		require.NoError(t, db.Where("transfer_id = ?", *result.TransferID).Order("amount ASC").Find(&legs).Error)
		require.Len(t, legs, 2)

		assert.Equal(t, sender.ID, legs[0].UserID)
		assert.Equal(t, -30, legs[0].Amount)
		assert.Equal(t, model.TxTransferSend, legs[0].Type)
		require.NotNil(t, legs[0].Description)
		assert.Equal(t, "recipient에게 전송: 선물", *legs[0].Description)

		assert.Equal(t, recipient.ID, legs[1].UserID)
		assert.Equal(t, 30, legs[1].Amount)
		assert.Equal(t, model.TxTransferReceive, legs[1].Type)
		require.NotNil(t, legs[1].Description)
		assert.Equal(t, "sender으로부터 수신: 선물", *legs[1].Description)
	})

	t.Run("descriptions without message", func(t *testing.T) {
		result, err := svc.Transfer(ctx, sender.ID, dto.TransferRequest{ToUserID: recipient.ID, Amount: 5})
		require.NoError(t, err)
		require.True(t, result.Success)

		var legs []model.AuraTransaction
		require.NoError(t, db.Where("transfer_id = ?", *result.TransferID).Order("amount ASC").Find(&legs).Error)
		require.Len(t, legs, 2)
		assert.Equal(t, "recipient에게 전송", *legs[0].Description)
		assert.Equal(t, "sender으로부터 수신", *legs[1].Description)
	})
}

func TestAdminAdjust(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, "eve", 50)

	newBalance, err := svc.AdminAdjust(ctx, dto.AdminAdjustRequest{
		UserID:      user.ID,
		Amount:      25,
		Description: "event bonus",
	})
	require.NoError(t, err)
	assert.Equal(t, 75, newBalance)

	// A debit below zero rolls back entirely.
	_, err = svc.AdminAdjust(ctx, dto.AdminAdjustRequest{UserID: user.ID, Amount: -100})
	require.Error(t, err)

	var u model.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 75, u.AuraBalance)

	var count int64
	require.NoError(t, db.Model(&model.AuraTransaction{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuraService(t, db)

	user := createTestUser(t, db, "frank", 120)

	balance, err := svc.GetBalance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, balance.AuraBalance)
	assert.Equal(t, 120, balance.TotalAuraEarned)
}
