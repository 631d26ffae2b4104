package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Email           string  `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash    string  `gorm:"size:255" json:"-"`
	Name            string  `gorm:"size:50;not null" json:"name"`
	Bio             *string `gorm:"type:text" json:"bio,omitempty"`
	ProfileImageURL *string `gorm:"type:text" json:"profile_image_url,omitempty"`
	GoogleID        *string `gorm:"size:100;uniqueIndex" json:"-"`
	Role            string  `gorm:"size:20;not null;default:USER" json:"role"`

	// Aura economy account. Balance never goes negative and is mutated only
	// inside ledger transactions that also append an AuraTransaction row.
	AuraBalance     int `gorm:"not null;default:0" json:"aura_balance"`
	TotalAuraEarned int `gorm:"not null;default:0" json:"total_aura_earned"`

	// Untyped settings blob; see NotificationSettings for the typed view.
	Preferences []byte `gorm:"type:jsonb" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NotificationSettings is the typed view over the "notifications" section of
// the user preferences blob. Nil pointers mean "not set", which defaults to
// allowed — only an explicit false disables a notification kind.
type NotificationSettings struct {
	NewFollowers *bool `json:"newFollowers,omitempty"`
	ArtworkLikes *bool `json:"artworkLikes,omitempty"`
	Comments     *bool `json:"comments,omitempty"`
	Mentions     *bool `json:"mentions,omitempty"`
}

type userPreferences struct {
	Notifications *NotificationSettings `json:"notifications,omitempty"`
}

// NotificationSettings parses the preferences blob. A missing or malformed
// blob yields zero-value settings (everything allowed).
func (u *User) NotificationSettings() NotificationSettings {
	if len(u.Preferences) == 0 {
		return NotificationSettings{}
	}
	var prefs userPreferences
	if err := json.Unmarshal(u.Preferences, &prefs); err != nil || prefs.Notifications == nil {
		return NotificationSettings{}
	}
	return *prefs.Notifications
}
