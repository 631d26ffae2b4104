package dto

import "encoding/json"

type TagInput struct {
	Name  string  `json:"name" binding:"required,max=50"`
	Color *string `json:"color"`
}

type PostImagesInput struct {
	Original   string `json:"original" binding:"required"`
	Background string `json:"background" binding:"required"`
	Foreground string `json:"foreground" binding:"required"`
	Thumbnail  string `json:"thumbnail"`
}

type CreatePostRequest struct {
	Title         string          `json:"title" binding:"required,max=200"`
	Description   *string         `json:"description"`
	Tags          []TagInput      `json:"tags"`
	Collection    *uint           `json:"collection"`
	TaggedFriends []uint          `json:"tagged_friends"`
	IsPrivate     bool            `json:"is_private"`
	Images        PostImagesInput `json:"images" binding:"required"`
	Effect        json.RawMessage `json:"effect"`
}

type UpdatePostRequest struct {
	Title       *string         `json:"title" binding:"omitempty,max=200"`
	Description *string         `json:"description"`
	IsPrivate   *bool           `json:"is_private"`
	Effect      json.RawMessage `json:"effect"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
