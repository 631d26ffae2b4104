package model

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	AuthorID    uint    `gorm:"index;not null" json:"author_id"`
	Author      User    `gorm:"foreignKey:AuthorID" json:"author"`
	Title       string  `gorm:"size:200;not null" json:"title"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	IsPrivate   bool    `gorm:"not null;default:false" json:"is_private"`
	ViewCount   int     `gorm:"not null;default:0" json:"view_count"`

	// Opaque client-defined render metadata.
	Effect []byte `gorm:"type:jsonb" json:"effect,omitempty"`

	CollectionID *uint       `json:"collection_id,omitempty"`
	Collection   *Collection `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`

	Photo         *Photo `gorm:"foreignKey:PostID" json:"photo,omitempty"`
	Tags          []Tag  `gorm:"many2many:post_tags" json:"tags"`
	TaggedFriends []User `gorm:"many2many:post_friends" json:"tagged_friends"`

	CreatedAt time.Time      `gorm:"index:idx_posts_created_id,priority:1" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Photo is the one photo set attached to a post, created in the same
// transaction as the post itself.
type Photo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"uniqueIndex;not null" json:"post_id"`
	Original   string    `gorm:"type:text;not null" json:"original"`
	Background string    `gorm:"type:text;not null" json:"background"`
	Foreground string    `gorm:"type:text;not null" json:"foreground"`
	Thumbnail  string    `gorm:"type:text;not null" json:"thumbnail"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Color     *string   `gorm:"size:20" json:"color,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

type Collection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"index;not null" json:"post_id"`
	AuthorID  uint           `gorm:"index;not null" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
