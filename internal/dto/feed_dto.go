package dto

import "encoding/json"

// FeedWeights are the multipliers for the home-feed scoring signals.
type FeedWeights struct {
	Following    float64 `form:"following" json:"following"`
	Popular      float64 `form:"popular" json:"popular"`
	Recent       float64 `form:"recent" json:"recent"`
	Personalized float64 `form:"personalized" json:"personalized"`
}

func DefaultFeedWeights() FeedWeights {
	return FeedWeights{
		Following:    1.0,
		Popular:      0.3,
		Recent:       0.5,
		Personalized: 0.7,
	}
}

// SearchWeights are the multipliers for the search relevance formula.
type SearchWeights struct {
	Relevance  float64 `form:"relevance" json:"relevance"`
	Popularity float64 `form:"popularity" json:"popularity"`
	Recent     float64 `form:"recent" json:"recent"`
}

func DefaultSearchWeights() SearchWeights {
	return SearchWeights{
		Relevance:  1.0,
		Popularity: 0.3,
		Recent:     0.5,
	}
}

type FeedAuthor struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	IsFollowing     bool    `json:"is_following"`
}

type FeedImages struct {
	Original   string `json:"original"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Thumbnail  string `json:"thumbnail"`
}

type FeedStats struct {
	Likes     int `json:"likes"`
	Comments  int `json:"comments"`
	Bookmarks int `json:"bookmarks"`
	Views     int `json:"views"`
}

type FeedTag struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

type FeedFriend struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

type FeedCollection struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FeedPost carries the computed score for client analytics; the page order
// stays strictly chronological regardless of the score.
type FeedPost struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Description    *string         `json:"description,omitempty"`
	Author         FeedAuthor      `json:"author"`
	Collection     *FeedCollection `json:"collection,omitempty"`
	IsPrivate      bool            `json:"is_private"`
	Images         FeedImages      `json:"images"`
	Effect         json.RawMessage `json:"effect,omitempty"`
	Tags           []FeedTag       `json:"tags"`
	TaggedFriends  []FeedFriend    `json:"tagged_friends"`
	Stats          FeedStats       `json:"stats"`
	IsLiked        bool            `json:"is_liked"`
	IsBookmarked   bool            `json:"is_bookmarked"`
	IsMyPost       bool            `json:"is_my_post"`
	AlgorithmScore *float64        `json:"algorithm_score,omitempty"`
	FeedReason     string          `json:"feed_reason"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

type AlgorithmInfo struct {
	FollowingCount    int `json:"following_count"`
	PopularCount      int `json:"popular_count"`
	PersonalizedCount int `json:"personalized_count"`
	RecentCount       int `json:"recent_count"`
}

type HomeFeedResponse struct {
	Posts         []FeedPost    `json:"posts"`
	Pagination    Pagination    `json:"pagination"`
	AlgorithmInfo AlgorithmInfo `json:"algorithm_info"`
}

type SearchResponse struct {
	Posts      []FeedPost `json:"posts"`
	Pagination Pagination `json:"pagination"`
	SearchTerm string     `json:"search_term"`
}
