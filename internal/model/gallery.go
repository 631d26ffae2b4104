package model

import "time"

type Gallery struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OwnerID         uint      `gorm:"index;not null" json:"owner_id"`
	Owner           User      `gorm:"foreignKey:OwnerID" json:"owner"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Description     *string   `gorm:"type:text" json:"description,omitempty"`
	TotalSlots      int       `gorm:"not null" json:"total_slots"`
	VisitorCount    int       `gorm:"not null;default:0" json:"visitor_count"`
	MonthlyVisitors int       `gorm:"not null;default:0" json:"monthly_visitors"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GallerySlot is one exhibition position. Slots are created up-front when the
// gallery is created and occupied/released by the owner.
type GallerySlot struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GalleryID  uint      `gorm:"uniqueIndex:idx_gallery_slot,priority:1;not null" json:"gallery_id"`
	SlotNumber int       `gorm:"uniqueIndex:idx_gallery_slot,priority:2;not null" json:"slot_number"`
	ArtworkID  *uint     `json:"artwork_id,omitempty"`
	Artwork    *Artwork  `gorm:"foreignKey:ArtworkID" json:"artwork,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Artwork struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	GalleryID   uint    `gorm:"index;not null" json:"gallery_id"`
	OwnerID     uint    `gorm:"index;not null" json:"owner_id"`
	PostID      *uint   `json:"post_id,omitempty"`
	Title       string  `gorm:"size:200;not null" json:"title"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string  `gorm:"type:text;not null" json:"image_url"`

	// Bare counters; gallery likes have no per-user join table.
	GalleryViews int `gorm:"not null;default:0" json:"gallery_views"`
	GalleryLikes int `gorm:"not null;default:0" json:"gallery_likes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
