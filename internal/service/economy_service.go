package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
)

// EconomyService maintains the daily aura rollups that drive reward scaling.
type EconomyService interface {
	// UpdateDailyStats recomputes the rollup for the given day and derives the
	// scaling factor applied to the following day's rewards.
	UpdateDailyStats(ctx context.Context, targetDate time.Time) error
	// UpdateYesterdayStats is the scheduled entry point; it closes out the
	// previous UTC day.
	UpdateYesterdayStats(ctx context.Context) error
}

type economyService struct {
	statsRepo repository.AuraStatsRepository
	now       func() time.Time
}

func NewEconomyService(statsRepo repository.AuraStatsRepository) EconomyService {
	return &economyService{
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

// fallbackAvgEarn stands in for the trailing average until the economy has
// any history at all.
const fallbackAvgEarn = 100.0

func (s *economyService) UpdateDailyStats(ctx context.Context, targetDate time.Time) error {
	day := utcDay(targetDate)

	totalEarned, totalUsers, err := s.statsRepo.EarnedForDay(ctx, day)
	if err != nil {
		return err
	}

	avgEarnPerUser := 0.0
	if totalUsers > 0 {
		avgEarnPerUser = float64(totalEarned) / float64(totalUsers)
	}

	trailingAvg, ok, err := s.statsRepo.TrailingAvgEarn(ctx, day.AddDate(0, 0, -30), day, model.PeriodDaily)
	if err != nil {
		return err
	}
	if !ok || trailingAvg == 0 {
		trailingAvg = fallbackAvgEarn
	}

	// Rewards shrink when the economy runs hot against its 30-day trailing
	// average and grow when it runs cold; a dead band around 1.0 keeps the
	// factor stable day to day.
	scalingFactor := 1.0
	if avgEarnPerUser > 0 {
		ratio := avgEarnPerUser / trailingAvg
		if ratio > 1.2 {
			scalingFactor = 0.9
		} else if ratio < 0.8 {
			scalingFactor = 1.1
		}
	}

	stats := &model.AuraStats{
		Date:           day,
		Period:         model.PeriodDaily,
		TotalUsers:     totalUsers,
		TotalEarned:    totalEarned,
		AvgEarnPerUser: avgEarnPerUser,
		ScalingFactor:  scalingFactor,
	}
	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"date":           day.Format("2006-01-02"),
		"total_users":    totalUsers,
		"total_earned":   totalEarned,
		"scaling_factor": scalingFactor,
	}).Info("daily aura stats updated")
	return nil
}

func (s *economyService) UpdateYesterdayStats(ctx context.Context) error {
	yesterday := utcDay(s.now()).Add(-24 * time.Hour)
	return s.UpdateDailyStats(ctx, yesterday)
}
