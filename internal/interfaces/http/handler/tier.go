package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	tierapp "github.com/traitedesk/backend/internal/application/tier"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
)

// TierService is the tier surface the handler needs
type TierService interface {
	Create(ctx context.Context, userID string, req tierapp.IdentityRequest) (*tierapp.TierResponse, error)
	Get(ctx context.Context, id int64) (*tierapp.TierResponse, error)
	List(ctx context.Context, filter tier.ListFilter) (shared.Paginated[tierapp.TierResponse], error)
	Update(ctx context.Context, id int64, userID string, req tierapp.IdentityRequest) (*tierapp.TierResponse, error)
	ListActivities(ctx context.Context, tierID int64) ([]tierapp.TierActivityResponse, error)
	ImportCSV(ctx context.Context, userID string, r io.Reader) (*csvimport.Result, error)
}

// TierHandler handles tier endpoints
type TierHandler struct {
	BaseHandler
	tiers TierService
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tiers TierService) *TierHandler {
	return &TierHandler{tiers: tiers}
}

// TierListQuery holds the tier list query parameters
type TierListQuery struct {
	ListQuery
	TypeTiers string `form:"type_tiers" binding:"omitempty,oneof=Client Fournisseur"`
	Categorie string `form:"categorie"`
}

// Create godoc
// @Summary      Create a tier
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        request body tierapp.IdentityRequest true "Tier"
// @Success      201 {object} dto.Response{data=tierapp.TierResponse}
// @Failure      409 {object} dto.Response
// @Router       /tiers [post]
func (h *TierHandler) Create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req tierapp.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.tiers.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, out)
}

// List godoc
// @Summary      List tiers
// @Tags         tiers
// @Produce      json
// @Param        type_tiers query string false "Client or Fournisseur"
// @Param        categorie query string false "Category"
// @Success      200 {object} dto.Response{data=[]tierapp.TierResponse}
// @Router       /tiers [get]
func (h *TierHandler) List(c *gin.Context) {
	var q TierListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.tiers.List(c.Request.Context(), tier.ListFilter{
		Filter:    q.Filter(),
		TypeTiers: tier.Type(q.TypeTiers),
		Categorie: q.Categorie,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get a tier
// @Tags         tiers
// @Produce      json
// @Param        id path int true "Tier ID"
// @Success      200 {object} dto.Response{data=tierapp.TierResponse}
// @Router       /tiers/{id} [get]
func (h *TierHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.tiers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Update godoc
// @Summary      Update a tier
// @Description  Changed fields are written to the tier activity log.
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        id path int true "Tier ID"
// @Param        request body tierapp.IdentityRequest true "Tier"
// @Success      200 {object} dto.Response{data=tierapp.TierResponse}
// @Router       /tiers/{id} [put]
func (h *TierHandler) Update(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tierapp.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.tiers.Update(c.Request.Context(), id, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Activities godoc
// @Summary      Activity log of a tier
// @Tags         tiers
// @Produce      json
// @Param        id path int true "Tier ID"
// @Success      200 {object} dto.Response{data=[]tierapp.TierActivityResponse}
// @Router       /tiers/{id}/activities [get]
func (h *TierHandler) Activities(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.tiers.ListActivities(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if out == nil {
		out = []tierapp.TierActivityResponse{}
	}
	h.Success(c, out)
}

// Import godoc
// @Summary      Import tiers from CSV
// @Tags         tiers
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=csvimport.Result}
// @Router       /tiers/import [post]
func (h *TierHandler) Import(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	file, ok := h.uploadedCSV(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.tiers.ImportCSV(c.Request.Context(), userID, file)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
