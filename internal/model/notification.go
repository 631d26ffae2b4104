package model

import "time"

// Notification kinds gated by NotificationSettings.
const (
	NotifFollow   = "FOLLOW"
	NotifPostLike = "POST_LIKE"
	NotifComment  = "COMMENT"
	NotifMention  = "MENTION"
	NotifPostTag  = "POST_TAG"
)

type Notification struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RecipientID uint   `gorm:"index:idx_notif_recipient,priority:1;not null" json:"recipient_id"`
	ActorID     *uint  `json:"actor_id,omitempty"`
	Actor       *User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type        string `gorm:"size:30;not null" json:"type"`
	PostID      *uint  `json:"post_id,omitempty"`
	CommentID   *uint  `json:"comment_id,omitempty"`

	// Free-form display payload (post title, actor name, comment excerpt).
	Metadata []byte `gorm:"type:jsonb" json:"metadata,omitempty"`

	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index:idx_notif_recipient,priority:2;autoCreateTime" json:"created_at"`
}
