package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"kodisha/internal/access"
	"kodisha/internal/channel"
	"kodisha/internal/domain"
	"kodisha/internal/lifecycle"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/repository"
	"kodisha/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

// ChannelHandler exposes instruction issuance and settlement confirmation for
// the three settlement channels.
type ChannelHandler struct {
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	registry    *channel.Registry
	gateway     *channel.GatewayAdapter
	manager     *lifecycle.Manager
	cloud       cloudinary.Client // nil when receipts are not configured
}

func NewChannelHandler(
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	registry *channel.Registry,
	gateway *channel.GatewayAdapter,
	manager *lifecycle.Manager,
	cloud cloudinary.Client,
) *ChannelHandler {
	return &ChannelHandler{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		registry:    registry,
		gateway:     gateway,
		manager:     manager,
		cloud:       cloud,
	}
}

func (h *ChannelHandler) loadGuarded(c *gin.Context) (*models.Payment, *models.User) {
	actor, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil, nil
	}
	var id uint
	if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return nil, nil
	}
	p, err := h.paymentRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return nil, nil
	}
	if !access.CanAccess(p, actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, nil
	}
	return p, actor
}

func (h *ChannelHandler) issue(c *gin.Context, name string, opts channel.Options) {
	p, _ := h.loadGuarded(c)
	if p == nil {
		return
	}
	adapter := h.registry.Get(name)
	if adapter == nil {
		respondError(c, domain.ErrChannelUnavailable)
		return
	}
	instr, err := adapter.IssueInstructions(c.Request.Context(), p, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.manager.ApplyInstructions(p, instr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instructions": instr, "payment": p})
}

// GatewayIntent opens a remote payment intent and returns the confirmation
// secret the client completes the card payment with.
func (h *ChannelHandler) GatewayIntent(c *gin.Context) {
	h.issue(c, domain.ChannelGateway, channel.Options{})
}

type peerInstructionsRequest struct {
	BankCode      string `json:"bank_code" binding:"required"`
	ContactMethod string `json:"contact_method" binding:"required"`
}

func (h *ChannelHandler) PeerInstructions(c *gin.Context) {
	var req peerInstructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.issue(c, domain.ChannelPeerTransfer, channel.Options{
		BankCode:      req.BankCode,
		ContactMethod: req.ContactMethod,
	})
}

func (h *ChannelHandler) BankInstructions(c *gin.Context) {
	h.issue(c, domain.ChannelBankTransfer, channel.Options{})
}

type gatewayConfirmRequest struct {
	Token string `json:"token"`
}

// GatewayConfirm verifies the intent with the processor and, on success,
// commits the settlement. A still-pending intent answers 200 with
// settled=false: callbacks and users retry, and retries must not read as
// failures.
func (h *ChannelHandler) GatewayConfirm(c *gin.Context) {
	p, actor := h.loadGuarded(c)
	if p == nil {
		return
	}
	var req gatewayConfirmRequest
	_ = c.ShouldBindJSON(&req)

	if p.IsSettled() {
		c.JSON(http.StatusOK, gin.H{"settled": true, "payment": p})
		return
	}
	proof, err := h.gateway.Confirm(c.Request.Context(), p, req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrNotYetSettled) {
			c.JSON(http.StatusOK, gin.H{"settled": false, "payment": p})
			return
		}
		respondError(c, err)
		return
	}
	out, err := h.manager.SettleWithProof(p, proof, actor.ID, actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settled": true, "payment": out})
}

type settleRequest struct {
	Channel   string `json:"channel" binding:"required"`
	Reference string `json:"reference" binding:"required"`
	Note      string `json:"note"`
}

// Settle records a manual settlement claim for the peer and bank channels.
// Submitting the same reference twice is a no-op returning the settled row.
func (h *ChannelHandler) Settle(c *gin.Context) {
	p, actor := h.loadGuarded(c)
	if p == nil {
		return
	}
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.manager.SettleClaim(p, strings.ToUpper(req.Channel), req.Reference, req.Note, actor.ID, actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settled": out.IsSettled(), "payment": out})
}

// UploadReceipt attaches a proof-of-payment image to a manual-channel
// payment. The URL lands in the channel metadata bag.
func (h *ChannelHandler) UploadReceipt(c *gin.Context) {
	p, _ := h.loadGuarded(c)
	if p == nil {
		return
	}
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receipt storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt file required"})
		return
	}
	defer file.Close()
	publicID := fmt.Sprintf("payment_%d_%s", p.ID, strings.ReplaceAll(header.Filename, "/", "_"))
	url, err := h.cloud.UploadImage(c.Request.Context(), file, "receipts", publicID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	meta := p.MetadataMap()
	meta["receipt_url"] = url
	p.SetMetadataMap(meta)
	if err := h.paymentRepo.Update(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt_url": url})
}
