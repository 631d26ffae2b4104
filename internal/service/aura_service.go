package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

type AuraService interface {
	GetBalance(ctx context.Context, userID uint) (*dto.BalanceResponse, error)
	GetQuestBoard(ctx context.Context, userID uint) ([]dto.QuestProgress, error)
	// IncrementQuest advances the counter for an activity; never pays rewards.
	IncrementQuest(ctx context.Context, userID uint, questType string, relatedPostID, relatedCommentID *uint) (*dto.ProgressResult, error)
	// ClaimReward pays exactly one reward unit per call.
	ClaimReward(ctx context.Context, userID, questID uint) (*dto.ClaimResult, error)
	Transfer(ctx context.Context, fromUserID uint, req dto.TransferRequest) (*dto.TransferResult, error)
	AdminAdjust(ctx context.Context, req dto.AdminAdjustRequest) (int, error)
	ListTransactions(ctx context.Context, userID uint, page, limit int) ([]model.AuraTransaction, int64, error)
}

type auraService struct {
	auraRepo  repository.AuraRepository
	statsRepo repository.AuraStatsRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

func NewAuraService(auraRepo repository.AuraRepository, statsRepo repository.AuraStatsRepository, userRepo repository.UserRepository) AuraService {
	return &auraService{
		auraRepo:  auraRepo,
		statsRepo: statsRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// utcDay truncates to UTC midnight; all quest progress is keyed on this.
func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// currentScalingFactor reads yesterday's rollup; missing history means 1.0.
func (s *auraService) currentScalingFactor(ctx context.Context) float64 {
	yesterday := utcDay(s.now()).Add(-24 * time.Hour)
	stats, err := s.statsRepo.FindByDate(ctx, yesterday, model.PeriodDaily)
	if err != nil {
		log.WithError(err).Warn("failed to load scaling factor, using default")
		return 1.0
	}
	if stats == nil || stats.ScalingFactor == 0 {
		return 1.0
	}
	return stats.ScalingFactor
}

func scaleReward(baseReward int, factor float64) int {
	return int(math.Round(float64(baseReward) * factor))
}

func (s *auraService) GetBalance(ctx context.Context, userID uint) (*dto.BalanceResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{
		AuraBalance:     user.AuraBalance,
		TotalAuraEarned: user.TotalAuraEarned,
	}, nil
}

func (s *auraService) GetQuestBoard(ctx context.Context, userID uint) ([]dto.QuestProgress, error) {
	quests, err := s.auraRepo.ListActiveQuests(ctx)
	if err != nil {
		return nil, err
	}

	today := utcDay(s.now())
	progressRows, err := s.auraRepo.ListProgressForDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	byQuest := make(map[uint]model.UserDailyProgress, len(progressRows))
	for _, row := range progressRows {
		byQuest[row.QuestID] = row
	}

	factor := s.currentScalingFactor(ctx)

	board := make([]dto.QuestProgress, 0, len(quests))
	for _, quest := range quests {
		progress := byQuest[quest.ID]
		available := minInt(progress.CurrentCount, quest.MaxCount) - progress.RewardsReceived

		board = append(board, dto.QuestProgress{
			QuestID:          quest.ID,
			Type:             quest.Type,
			Name:             quest.Name,
			Description:      quest.Description,
			CurrentCount:     minInt(progress.CurrentCount, quest.MaxCount),
			MaxCount:         quest.MaxCount,
			BaseReward:       quest.BaseReward,
			ScaledReward:     scaleReward(quest.BaseReward, factor),
			RewardsReceived:  progress.RewardsReceived,
			AvailableRewards: available,
			IsCompleted:      progress.CurrentCount >= quest.MaxCount,
			CanClaim:         available > 0,
		})
	}
	return board, nil
}

func (s *auraService) IncrementQuest(ctx context.Context, userID uint, questType string, relatedPostID, relatedCommentID *uint) (*dto.ProgressResult, error) {
	quest, err := s.auraRepo.FindActiveQuestByType(ctx, questType)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &dto.ProgressResult{Progressed: false}, nil
		}
		return nil, err
	}

	today := utcDay(s.now())
	progress, err := s.auraRepo.IncrementProgress(ctx, userID, quest.ID, today)
	if err != nil {
		return nil, err
	}

	// The counter keeps running past MaxCount; only rewards are capped.
	return &dto.ProgressResult{
		Progressed:   true,
		CurrentCount: progress.CurrentCount,
		MaxCount:     quest.MaxCount,
	}, nil
}

func (s *auraService) ClaimReward(ctx context.Context, userID, questID uint) (*dto.ClaimResult, error) {
	quest, err := s.auraRepo.FindActiveQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &dto.ClaimResult{Success: false, Message: "존재하지 않는 퀘스트입니다."}, nil
		}
		return nil, err
	}

	now := s.now()
	today := utcDay(now)
	progress, err := s.auraRepo.FindProgress(ctx, userID, quest.ID, today)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &dto.ClaimResult{Success: false, Message: "진행도가 없습니다."}, nil
		}
		return nil, err
	}
	if progress.CurrentCount == 0 {
		return &dto.ClaimResult{Success: false, Message: "진행도가 없습니다."}, nil
	}

	available := minInt(progress.CurrentCount, quest.MaxCount) - progress.RewardsReceived
	if available <= 0 {
		return &dto.ClaimResult{Success: false, Message: "받을 수 있는 보상이 없습니다."}, nil
	}

	factor := s.currentScalingFactor(ctx)
	amount := scaleReward(quest.BaseReward, factor)
	description := fmt.Sprintf("%s 보상 %d회차", quest.Name, progress.RewardsReceived+1)

	_, err = s.auraRepo.ClaimReward(ctx, repository.ClaimRewardParams{
		UserID:      userID,
		QuestID:     quest.ID,
		Day:         today,
		MaxCount:    quest.MaxCount,
		Amount:      amount,
		Description: description,
		Now:         now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNothingToClaim) {
			return &dto.ClaimResult{Success: false, Message: "받을 수 있는 보상이 없습니다."}, nil
		}
		return nil, err
	}

	return &dto.ClaimResult{Success: true, Amount: amount}, nil
}

func (s *auraService) Transfer(ctx context.Context, fromUserID uint, req dto.TransferRequest) (*dto.TransferResult, error) {
	// Business validation happens before any storage work.
	if req.Amount <= 0 {
		return &dto.TransferResult{Success: false, Message: "전송 금액은 0보다 커야 합니다."}, nil
	}
	if req.ToUserID == fromUserID {
		return &dto.TransferResult{Success: false, Message: "자기 자신에게는 전송할 수 없습니다."}, nil
	}

	transferID := uuid.NewString()
	newBalance, err := s.auraRepo.Transfer(ctx, fromUserID, req.ToUserID, req.Amount, transferID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSenderNotFound):
			return &dto.TransferResult{Success: false, Message: "보내는 사용자를 찾을 수 없습니다."}, nil
		case errors.Is(err, apperror.ErrInsufficientBalance):
			return &dto.TransferResult{Success: false, Message: "잔액이 부족합니다."}, nil
		case errors.Is(err, repository.ErrRecipientNotFound):
			return &dto.TransferResult{Success: false, Message: "받는 사용자를 찾을 수 없습니다."}, nil
		default:
			log.WithError(err).Error("aura transfer failed")
			return &dto.TransferResult{Success: false, Message: "전송 중 오류가 발생했습니다."}, nil
		}
	}

	return &dto.TransferResult{
		Success:    true,
		Message:    "전송이 완료되었습니다.",
		TransferID: &transferID,
		NewBalance: &newBalance,
	}, nil
}

func (s *auraService) AdminAdjust(ctx context.Context, req dto.AdminAdjustRequest) (int, error) {
	var description *string
	if req.Description != "" {
		description = &req.Description
	}
	return s.auraRepo.AddAura(ctx, repository.AddAuraParams{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        model.TxAdmin,
		Description: description,
	})
}

func (s *auraService) ListTransactions(ctx context.Context, userID uint, page, limit int) ([]model.AuraTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.auraRepo.ListTransactions(ctx, userID, (page-1)*limit, limit)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
