package response

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lumo.kr/auragram/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, apperror.ErrUnauthorized
	}

	switch v := raw.(type) {
	case uint:
		return v, nil
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, apperror.ErrUnauthorized
		}
		return uint(id), nil
	default:
		return 0, apperror.ErrUnauthorized
	}
}

// OptionalUserID returns the viewer ID when a valid token was presented, nil otherwise.
func OptionalUserID(c *gin.Context) *uint {
	id, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
