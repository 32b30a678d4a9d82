package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"kodisha/internal/access"
	"kodisha/internal/domain"
	"kodisha/internal/lifecycle"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/repository"
	"kodisha/internal/resolver"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	userRepo    *repository.UserRepository
	propRepo    *repository.PropertyRepository
	paymentRepo *repository.PaymentRepository
	requestRepo *repository.RequestRepository
	resolver    *resolver.Resolver
	manager     *lifecycle.Manager
}

func NewPaymentHandler(
	userRepo *repository.UserRepository,
	propRepo *repository.PropertyRepository,
	paymentRepo *repository.PaymentRepository,
	requestRepo *repository.RequestRepository,
	rslv *resolver.Resolver,
	manager *lifecycle.Manager,
) *PaymentHandler {
	return &PaymentHandler{
		userRepo:    userRepo,
		propRepo:    propRepo,
		paymentRepo: paymentRepo,
		requestRepo: requestRepo,
		resolver:    rslv,
		manager:     manager,
	}
}

// actor loads the authenticated user; nil with a written response on failure.
func (h *PaymentHandler) actor(c *gin.Context) *models.User {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil
	}
	return u
}

// load fetches the payment and enforces the access guard against the
// persisted, resolved recipient.
func (h *PaymentHandler) load(c *gin.Context, actor *models.User) *models.Payment {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return nil
	}
	p, err := h.paymentRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, err)
		return nil
	}
	if !access.CanAccess(p, actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil
	}
	return p
}

type createPaymentRequest struct {
	UnitID      uint            `json:"unit_id" binding:"required"`
	BuildingID  *uint           `json:"building_id"`
	RequestID   *uint           `json:"request_id"`
	PayerID     *uint           `json:"payer_id"` // admin only; others pay as themselves
	RecipientID *uint           `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Description string          `json:"description"`
	DueAt       *time.Time      `json:"due_at"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payer := actor
	if req.PayerID != nil && *req.PayerID != actor.ID {
		if !actor.IsAdmin() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only an administrator may create a payment for another payer"})
			return
		}
		var err error
		payer, err = h.userRepo.GetByID(*req.PayerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payer"})
			return
		}
	}

	unit, err := h.propRepo.UnitByID(req.UnitID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown unit"})
		return
	}

	var buildingID uint
	if req.BuildingID != nil {
		buildingID = *req.BuildingID
	}
	res, err := h.resolver.Resolve(resolver.Input{
		UnitID:              req.UnitID,
		BuildingID:          buildingID,
		ExplicitRecipientID: req.RecipientID,
		Category:            req.Category,
		Actor:               payer,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	bID := req.BuildingID
	if bID == nil {
		bID = unit.BuildingID
	}
	p, err := h.manager.Create(lifecycle.CreateInput{
		Payer:            payer,
		UnitID:           req.UnitID,
		BuildingID:       bID,
		RequestID:        req.RequestID,
		Amount:           req.Amount,
		Category:         req.Category,
		Description:      req.Description,
		DueAt:            req.DueAt,
		Recipient:        res.Recipient,
		RecipientContact: res.Contact,
		ActorRole:        actor.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	p := h.load(c, actor)
	if p == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

// scopeFor builds the visibility scope applied to list/projection queries.
func (h *PaymentHandler) scopeFor(actor *models.User) repository.Scope {
	s := repository.Scope{Role: actor.Role, UserID: actor.ID}
	if actor.IsOwner() {
		if ids, err := h.propRepo.UnitIDsByOwner(actor.ID); err == nil {
			s.UnitIDs = ids
		}
	}
	return s
}

func (h *PaymentHandler) List(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	f := repository.ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if v, err := strconv.ParseUint(c.Query("unit_id"), 10, 32); err == nil {
		f.UnitID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("building_id"), 10, 32); err == nil {
		f.BuildingID = uint(v)
	}
	if t, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		f.To = &t
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		f.Offset = v
	}
	list, total, err := h.paymentRepo.List(h.scopeFor(actor), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list, "total": total})
}

type updatePaymentRequest struct {
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	DueAt       *time.Time `json:"due_at"`
	Note        *string    `json:"settlement_note"`
}

// Update is the administrative edit; it never touches status, channel or
// settlement fields (those move only through the lifecycle manager).
func (h *PaymentHandler) Update(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	p := h.load(c, actor)
	if p == nil {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		if !domain.ValidCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		p.Category = *req.Category
	}
	if req.DueAt != nil {
		p.DueAt = *req.DueAt
	}
	if req.Note != nil {
		p.SettlementNote = *req.Note
	}
	if err := h.paymentRepo.Update(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	p := h.load(c, actor)
	if p == nil {
		return
	}
	out, err := h.manager.Cancel(p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": out})
}

// Delete purges a payment and recomputes the owning request's aggregate.
func (h *PaymentHandler) Delete(c *gin.Context) {
	actor := h.actor(c)
	if actor == nil {
		return
	}
	p := h.load(c, actor)
	if p == nil {
		return
	}
	if err := h.manager.Delete(p.ID); err != nil {
		respondError(c, err)
		return
	}
	if p.RequestID != nil {
		if err := h.requestRepo.RecomputePaymentStatus(*p.RequestID); err != nil {
			log.Printf("[PAYMENTS] recompute request %d after delete: %v", *p.RequestID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Sweep persists OVERDUE on pending payments past due (administrative).
func (h *PaymentHandler) Sweep(c *gin.Context) {
	n, err := h.paymentRepo.SweepOverdue(time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_overdue": n})
}
