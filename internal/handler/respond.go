package handler

import (
	"errors"
	"net/http"

	"kodisha/internal/domain"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Channel
// unavailability gets its own status and message so clients can offer the
// payer an alternate channel instead of a generic failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrRecipientUnresolved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAmountMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrChannelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "this channel is temporarily unavailable, choose another",
			"code":  "channel_unavailable",
		})
	case errors.Is(err, domain.ErrUpstreamTransient):
		c.JSON(http.StatusBadGateway, gin.H{"error": "temporary failure, retry shortly"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
