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

type AuraHandler struct {
	auraService    service.AuraService
	economyService service.EconomyService
}

func NewAuraHandler(auraService service.AuraService, economyService service.EconomyService) *AuraHandler {
	return &AuraHandler{auraService: auraService, economyService: economyService}
}

func (h *AuraHandler) GetBalance(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	balance, err := h.auraService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *AuraHandler) GetQuestBoard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	board, err := h.auraService.GetQuestBoard(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": board})
}

func (h *AuraHandler) IncrementQuest(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.IncrementQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.auraService.IncrementQuest(c.Request.Context(), userID, req.QuestType, req.RelatedPostID, req.RelatedCommentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuraHandler) ClaimReward(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.auraService.ClaimReward(c.Request.Context(), userID, req.QuestID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuraHandler) Transfer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.auraService.Transfer(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuraHandler) ListTransactions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	transactions, total, err := h.auraService.ListTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// AdminAdjust grants or deducts aura; admin only.
func (h *AuraHandler) AdminAdjust(c *gin.Context) {
	var req dto.AdminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	newBalance, err := h.auraService.AdminAdjust(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_balance": newBalance})
}

// UpdateStats recomputes yesterday's economy rollup. Called by the external
// scheduler with the cron API key; the in-process cron calls the service
// directly.
func (h *AuraHandler) UpdateStats(c *gin.Context) {
	if err := h.economyService.UpdateYesterdayStats(c.Request.Context()); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stats updated"})
}
