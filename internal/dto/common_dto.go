package dto

// Pagination is the cursor envelope shared by feed and search responses.
// Cursors are "<ISO-8601 createdAt>|<id>"; an unparsable cursor means
// "start from the beginning", never an error.
type Pagination struct {
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
	TotalShown int     `json:"total_shown"`
}
