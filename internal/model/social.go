package model

import "time"

// Follow is a directed edge in the social graph. The pair is unique and
// self-loops are rejected in the service layer; repeat follow/unfollow calls
// are no-ops that still report success.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"uniqueIndex:idx_follow_pair,priority:1;not null" json:"follower_id"`
	FollowingID uint      `gorm:"uniqueIndex:idx_follow_pair,priority:2;index;not null" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Membership facts below are unique on (user, post) and feed the ranking
// signals; they are never updated, only inserted or deleted.

type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_like_pair,priority:1;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_like_pair,priority:2;index;not null" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_bookmark_pair,priority:1;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_bookmark_pair,priority:2;index;not null" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PostExposure records that a post was shown in a viewer's feed, whether or
// not they opened it. Written best-effort after the feed response.
type PostExposure struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_exposure_pair,priority:1;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_exposure_pair,priority:2;index;not null" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PostView records that a viewer opened the post detail.
type PostView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_view_pair,priority:1;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_view_pair,priority:2;index;not null" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
