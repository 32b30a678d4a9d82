package handler

import (
	"net/http"
	"strconv"

	"kodisha/internal/models"
	"kodisha/internal/repository"

	"github.com/gin-gonic/gin"
)

// PropertyHandler is minimal administrative CRUD over buildings and units,
// enough for operators to maintain the directory the recipient resolver and
// access guard read from.
type PropertyHandler struct {
	repo *repository.PropertyRepository
}

func NewPropertyHandler(repo *repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{repo: repo}
}

type createBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	AdminID *uint  `json:"admin_id"`
}

func (h *PropertyHandler) CreateBuilding(c *gin.Context) {
	var req createBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b := &models.Building{Name: req.Name, Address: req.Address, AdminID: req.AdminID}
	if err := h.repo.CreateBuilding(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create building"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"building": b})
}

type createUnitRequest struct {
	Label      string `json:"label" binding:"required"`
	BuildingID *uint  `json:"building_id"`
	OwnerID    *uint  `json:"owner_id"`
	TenantID   *uint  `json:"tenant_id"`
}

func (h *PropertyHandler) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := &models.Unit{Label: req.Label, BuildingID: req.BuildingID, OwnerID: req.OwnerID, TenantID: req.TenantID}
	if err := h.repo.CreateUnit(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create unit"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": u})
}

func (h *PropertyHandler) GetUnit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit id"})
		return
	}
	u, err := h.repo.UnitByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": u})
}
