package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/service"
	"lumo.kr/auragram/pkg/response"
	"lumo.kr/auragram/pkg/validator"
)

type UserHandler struct {
	userService   service.UserService
	followService service.FollowService
}

func NewUserHandler(userService service.UserService, followService service.FollowService) *UserHandler {
	return &UserHandler{userService: userService, followService: followService}
}

type profileResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	AuraBalance     int     `json:"aura_balance"`
	TotalAuraEarned int     `json:"total_aura_earned"`
	Followers       int64   `json:"followers"`
	Following       int64   `json:"following"`
	IsFollowing     bool    `json:"is_following"`
	CreatedAt       string  `json:"created_at"`
}

func (h *UserHandler) buildProfile(c *gin.Context, user *model.User) (*profileResponse, error) {
	followers, following, err := h.followService.Counts(c.Request.Context(), user.ID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID := response.OptionalUserID(c); viewerID != nil && *viewerID != user.ID {
		isFollowing, err = h.followService.IsFollowing(c.Request.Context(), *viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return &profileResponse{
		ID:              user.ID,
		Name:            user.Name,
		Bio:             user.Bio,
		ProfileImageURL: user.ProfileImageURL,
		AuraBalance:     user.AuraBalance,
		TotalAuraEarned: user.TotalAuraEarned,
		Followers:       followers,
		Following:       following,
		IsFollowing:     isFollowing,
		CreatedAt:       user.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}, nil
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	profile, err := h.buildProfile(c, user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), targetID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	profile, err := h.buildProfile(c, user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req service.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	profile, err := h.buildProfile(c, user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateNotificationSettings(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var settings model.NotificationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.userService.UpdateNotificationSettings(c.Request.Context(), userID, settings); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings updated"})
}

func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer file.Close()

	url, err := h.userService.UploadProfileImage(c.Request.Context(), userID, file, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_image_url": url})
}

func (h *UserHandler) Follow(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.followService.Follow(c.Request.Context(), userID, targetID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *UserHandler) ListFollowers(c *gin.Context) {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.followService.ListFollowers(c.Request.Context(), targetID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *UserHandler) ListFollowing(c *gin.Context) {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.followService.ListFollowing(c.Request.Context(), targetID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
