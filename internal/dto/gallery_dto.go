package dto

type CreateGalleryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
	TotalSlots  int     `json:"total_slots" binding:"required,gt=0,max=100"`
}

type UpdateGalleryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

type CreateArtworkRequest struct {
	SlotNumber  int     `json:"slot_number" binding:"required,gt=0"`
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description"`
	ImageURL    string  `json:"image_url" binding:"required"`
	PostID      *uint   `json:"post_id"`
}

type UpdateArtworkRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}
