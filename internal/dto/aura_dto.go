package dto

// QuestProgress is one row of the daily quest board. CurrentCount is capped
// at MaxCount for display even when the raw counter ran past it.
type QuestProgress struct {
	QuestID          uint   `json:"quest_id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	CurrentCount     int    `json:"current_count"`
	MaxCount         int    `json:"max_count"`
	BaseReward       int    `json:"base_reward"`
	ScaledReward     int    `json:"scaled_reward"`
	RewardsReceived  int    `json:"rewards_received"`
	AvailableRewards int    `json:"available_rewards"`
	IsCompleted      bool   `json:"is_completed"`
	CanClaim         bool   `json:"can_claim"`
}

// ProgressResult reports whether an activity advanced a quest. An inactive or
// unknown quest type is a recoverable no-op, not an error.
type ProgressResult struct {
	Progressed   bool `json:"progressed"`
	CurrentCount int  `json:"current_count,omitempty"`
	MaxCount     int  `json:"max_count,omitempty"`
}

// ClaimResult is the tagged result of a reward claim; failures are carried in
// Message, never returned as errors.
type ClaimResult struct {
	Success bool   `json:"success"`
	Amount  int    `json:"amount,omitempty"`
	Message string `json:"message,omitempty"`
}

// TransferResult is the tagged result of a peer transfer. NewBalance is the
// sender's balance after the transfer.
type TransferResult struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	TransferID *string `json:"transfer_id,omitempty"`
	NewBalance *int    `json:"new_balance,omitempty"`
}

type BalanceResponse struct {
	AuraBalance     int `json:"aura_balance"`
	TotalAuraEarned int `json:"total_aura_earned"`
}

type TransferRequest struct {
	ToUserID uint   `json:"to_user_id" binding:"required"`
	Amount   int    `json:"amount" binding:"required"`
	Message  string `json:"message"`
}

type ClaimRequest struct {
	QuestID uint `json:"quest_id" binding:"required"`
}

type IncrementQuestRequest struct {
	QuestType        string `json:"quest_type" binding:"required"`
	RelatedPostID    *uint  `json:"related_post_id"`
	RelatedCommentID *uint  `json:"related_comment_id"`
}

type AdminAdjustRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Amount      int    `json:"amount" binding:"required"`
	Description string `json:"description"`
}
