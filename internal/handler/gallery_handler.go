package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/service"
	"lumo.kr/auragram/pkg/response"
	"lumo.kr/auragram/pkg/validator"
)

type GalleryHandler struct {
	galleryService service.GalleryService
}

func NewGalleryHandler(galleryService service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

func (h *GalleryHandler) CreateGallery(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	gallery, err := h.galleryService.CreateGallery(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gallery)
}

func (h *GalleryHandler) GetGallery(c *gin.Context) {
	galleryID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	viewerID := response.OptionalUserID(c)
	gallery, slots, err := h.galleryService.GetGallery(c.Request.Context(), viewerID, galleryID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gallery": gallery,
		"slots":   slots,
	})
}

func (h *GalleryHandler) UpdateGallery(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	galleryID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	gallery, err := h.galleryService.UpdateGallery(c.Request.Context(), userID, galleryID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gallery)
}

func (h *GalleryHandler) ListGalleries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	galleries, total, err := h.galleryService.ListGalleries(c.Request.Context(), page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"galleries": galleries,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *GalleryHandler) PlaceArtwork(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	galleryID, err := parseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	artwork, err := h.galleryService.PlaceArtwork(c.Request.Context(), userID, galleryID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artwork)
}

func (h *GalleryHandler) UpdateArtwork(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	artworkID, err := parseIDParam(c, "artworkId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	artwork, err := h.galleryService.UpdateArtwork(c.Request.Context(), userID, artworkID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

func (h *GalleryHandler) RemoveArtwork(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	artworkID, err := parseIDParam(c, "artworkId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.galleryService.RemoveArtwork(c.Request.Context(), userID, artworkID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "artwork removed"})
}

func (h *GalleryHandler) ViewArtwork(c *gin.Context) {
	artworkID, err := parseIDParam(c, "artworkId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	artwork, err := h.galleryService.ViewArtwork(c.Request.Context(), artworkID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

// LikeArtwork bumps the bare like counter; there is no per-user like record
// for gallery artworks, so the response always reports liked.
func (h *GalleryHandler) LikeArtwork(c *gin.Context) {
	artworkID, err := parseIDParam(c, "artworkId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.galleryService.LikeArtwork(c.Request.Context(), artworkID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true})
}
