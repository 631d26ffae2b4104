package model

import "time"

// Quest type keys. Progress is tracked per (user, quest, UTC day).
const (
	QuestPostCreate    = "POST_CREATE"
	QuestCommentCreate = "COMMENT_CREATE"
	QuestDailyLogin    = "DAILY_LOGIN"
	QuestLikeGive      = "LIKE_GIVE"
)

// Aura transaction types.
const (
	TxQuestReward     = "QUEST_REWARD"
	TxAdmin           = "ADMIN"
	TxTransferSend    = "TRANSFER_SEND"
	TxTransferReceive = "TRANSFER_RECEIVE"
)

const PeriodDaily = "DAILY"

type DailyQuest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"size:50;uniqueIndex;not null" json:"type"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	MaxCount    int       `gorm:"not null" json:"max_count"`
	BaseReward  int       `gorm:"not null" json:"base_reward"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserDailyProgress is the per-(user, quest, UTC day) counter. The raw
// counter may pass MaxCount; reward eligibility is capped at MaxCount and
// RewardsReceived never exceeds min(CurrentCount, MaxCount).
type UserDailyProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"uniqueIndex:idx_progress_day,priority:1;not null" json:"user_id"`
	QuestID         uint       `gorm:"uniqueIndex:idx_progress_day,priority:2;not null" json:"quest_id"`
	Date            time.Time  `gorm:"uniqueIndex:idx_progress_day,priority:3;not null" json:"date"`
	CurrentCount    int        `gorm:"not null;default:0" json:"current_count"`
	RewardsReceived int        `gorm:"not null;default:0" json:"rewards_received"`
	LastRewardAt    *time.Time `json:"last_reward_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// AuraTransaction is an immutable ledger entry. BalanceAfter snapshots the
// user's balance immediately after the entry was applied; transfer legs share
// one TransferID.
type AuraTransaction struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserID       uint    `gorm:"index:idx_tx_user_date,priority:1;not null" json:"user_id"`
	Amount       int     `gorm:"not null" json:"amount"`
	BalanceAfter int     `gorm:"not null" json:"balance_after"`
	Type         string  `gorm:"size:30;not null" json:"type"`
	Description  *string `gorm:"type:text" json:"description,omitempty"`

	QuestID          *uint `json:"quest_id,omitempty"`
	RelatedPostID    *uint `json:"related_post_id,omitempty"`
	RelatedCommentID *uint `json:"related_comment_id,omitempty"`

	FromUserID *uint   `json:"from_user_id,omitempty"`
	ToUserID   *uint   `json:"to_user_id,omitempty"`
	TransferID *string `gorm:"size:36;index" json:"transfer_id,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_tx_user_date,priority:2;index" json:"created_at"`
}

// AuraStats is the daily economy rollup, upserted by the stats job; one row
// per (date, period).
type AuraStats struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           time.Time `gorm:"uniqueIndex:idx_stats_day,priority:1;not null" json:"date"`
	Period         string    `gorm:"size:20;uniqueIndex:idx_stats_day,priority:2;not null;default:DAILY" json:"period"`
	TotalUsers     int       `gorm:"not null;default:0" json:"total_users"`
	TotalEarned    int       `gorm:"not null;default:0" json:"total_earned"`
	AvgEarnPerUser float64   `gorm:"not null;default:0" json:"avg_earn_per_user"`
	ScalingFactor  float64   `gorm:"not null;default:1" json:"scaling_factor"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
