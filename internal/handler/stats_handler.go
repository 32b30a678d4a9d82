package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsHandler serves the read-only projections: totals, overdue, next due.
// All queries run under the same visibility scope as the payment list.
type StatsHandler struct {
	userRepo    *repository.UserRepository
	propRepo    *repository.PropertyRepository
	paymentRepo *repository.PaymentRepository
}

func NewStatsHandler(userRepo *repository.UserRepository, propRepo *repository.PropertyRepository, paymentRepo *repository.PaymentRepository) *StatsHandler {
	return &StatsHandler{userRepo: userRepo, propRepo: propRepo, paymentRepo: paymentRepo}
}

func (h *StatsHandler) scope(c *gin.Context) (repository.Scope, bool) {
	actor, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return repository.Scope{}, false
	}
	s := repository.Scope{Role: actor.Role, UserID: actor.ID}
	if actor.IsOwner() {
		if ids, err := h.propRepo.UnitIDsByOwner(actor.ID); err == nil {
			s.UnitIDs = ids
		}
	}
	return s, true
}

// Stats returns derived totals. A query failure degrades to zeroed totals
// rather than failing the read: dashboards stay up even when a projection
// query is broken.
func (h *StatsHandler) Stats(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	t, err := h.paymentRepo.Stats(scope, time.Now())
	if err != nil {
		log.Printf("[STATS] totals query failed, serving zeroes: %v", err)
		t = &repository.Totals{
			PaidAmount:    decimal.Zero,
			PendingAmount: decimal.Zero,
			OverdueAmount: decimal.Zero,
		}
	}
	c.JSON(http.StatusOK, gin.H{"stats": t})
}

func (h *StatsHandler) Overdue(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	list, err := h.paymentRepo.Overdue(scope, time.Now())
	if err != nil {
		log.Printf("[STATS] overdue query failed, serving empty list: %v", err)
		list = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

func (h *StatsHandler) NextDue(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	p, err := h.paymentRepo.NextDue(scope, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"payment": nil})
			return
		}
		log.Printf("[STATS] next-due query failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"payment": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
