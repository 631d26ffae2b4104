package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/service"
	"lumo.kr/auragram/pkg/response"
)

type FeedHandler struct {
	feedService   service.FeedService
	searchService service.SearchService
}

func NewFeedHandler(feedService service.FeedService, searchService service.SearchService) *FeedHandler {
	return &FeedHandler{feedService: feedService, searchService: searchService}
}

// parseWeight reads one weight override from the query, keeping the default
// when the parameter is absent or malformed.
func parseWeight(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (h *FeedHandler) GetHomeFeed(c *gin.Context) {
	viewerID := response.OptionalUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	cursor := c.Query("cursor")

	defaults := dto.DefaultFeedWeights()
	weights := dto.FeedWeights{
		Following:    parseWeight(c, "weight_following", defaults.Following),
		Popular:      parseWeight(c, "weight_popular", defaults.Popular),
		Recent:       parseWeight(c, "weight_recent", defaults.Recent),
		Personalized: parseWeight(c, "weight_personalized", defaults.Personalized),
	}

	feed, err := h.feedService.GetHomeFeed(c.Request.Context(), viewerID, limit, cursor, weights)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *FeedHandler) SearchPosts(c *gin.Context) {
	viewerID := response.OptionalUserID(c)

	term := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cursor := c.Query("cursor")

	defaults := dto.DefaultSearchWeights()
	weights := dto.SearchWeights{
		Relevance:  parseWeight(c, "weight_relevance", defaults.Relevance),
		Popularity: parseWeight(c, "weight_popularity", defaults.Popularity),
		Recent:     parseWeight(c, "weight_recent", defaults.Recent),
	}

	result, err := h.searchService.SearchPosts(c.Request.Context(), viewerID, term, limit, cursor, weights)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
