package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumo.kr/auragram/internal/model"
)

type AuraStatsRepository interface {
	FindByDate(ctx context.Context, date time.Time, period string) (*model.AuraStats, error)
	Upsert(ctx context.Context, stats *model.AuraStats) error
	// EarnedForDay aggregates positive ledger entries in [day, day+24h):
	// total amount earned and the number of distinct earners.
	EarnedForDay(ctx context.Context, day time.Time) (totalEarned int, totalUsers int, err error)
	// TrailingAvgEarn averages avg_earn_per_user over [from, to). ok is false
	// when there is no history in the window.
	TrailingAvgEarn(ctx context.Context, from, to time.Time, period string) (avg float64, ok bool, err error)
}

type auraStatsRepository struct {
	db *gorm.DB
}

func NewAuraStatsRepository(db *gorm.DB) AuraStatsRepository {
	return &auraStatsRepository{db: db}
}

func (r *auraStatsRepository) FindByDate(ctx context.Context, date time.Time, period string) (*model.AuraStats, error) {
	var stats model.AuraStats
	err := r.db.WithContext(ctx).
		Where("date = ? AND period = ?", date, period).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (r *auraStatsRepository) Upsert(ctx context.Context, stats *model.AuraStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_users":       stats.TotalUsers,
			"total_earned":      stats.TotalEarned,
			"avg_earn_per_user": stats.AvgEarnPerUser,
			"scaling_factor":    stats.ScalingFactor,
			"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(stats).Error
}

func (r *auraStatsRepository) EarnedForDay(ctx context.Context, day time.Time) (int, int, error) {
	nextDay := day.Add(24 * time.Hour)

	var totalEarned int
	err := r.db.WithContext(ctx).Model(&model.AuraTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("created_at >= ? AND created_at < ? AND amount > 0", day, nextDay).
		Scan(&totalEarned).Error
	if err != nil {
		return 0, 0, err
	}

	var totalUsers int64
	err = r.db.WithContext(ctx).Model(&model.AuraTransaction{}).
		Where("created_at >= ? AND created_at < ? AND amount > 0", day, nextDay).
		Distinct("user_id").
		Count(&totalUsers).Error
	if err != nil {
		return 0, 0, err
	}

	return totalEarned, int(totalUsers), nil
}

func (r *auraStatsRepository) TrailingAvgEarn(ctx context.Context, from, to time.Time, period string) (float64, bool, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&model.AuraStats{}).
		Select("AVG(avg_earn_per_user)").
		Where("date >= ? AND date < ? AND period = ?", from, to, period).
		Scan(&avg).Error
	if err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}
