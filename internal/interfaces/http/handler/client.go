package handler

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	tierapp "github.com/traitedesk/backend/internal/application/tier"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
)

// ApprovalService is the client approval surface the handler needs
type ApprovalService interface {
	Submit(ctx context.Context, userID string, req tierapp.PendingClientRequest) (*tierapp.PendingClientResponse, error)
	GetPending(ctx context.Context, id int64) (*tierapp.PendingClientResponse, error)
	ListPending(ctx context.Context, filter tier.PendingFilter) (shared.Paginated[tierapp.PendingClientResponse], error)
	Resubmit(ctx context.Context, id int64, req tierapp.PendingClientRequest) (*tierapp.PendingClientResponse, error)
	Approve(ctx context.Context, id int64, userID string) (*tierapp.TierResponse, error)
	Reject(ctx context.Context, id int64, userID, reason string) error
	History(ctx context.Context, userID string, filter shared.Filter) (shared.Paginated[tierapp.ApprovalHistoryResponse], error)
}

// ClientHandler handles the pending client review queue
type ClientHandler struct {
	BaseHandler
	approvals ApprovalService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(approvals ApprovalService) *ClientHandler {
	return &ClientHandler{approvals: approvals}
}

// PendingListQuery holds the review queue query parameters
type PendingListQuery struct {
	ListQuery
	Status string `form:"status" binding:"omitempty,oneof=pending rejected"`
	Mine   bool   `form:"mine"`
}

// Submit godoc
// @Summary      Submit a client for approval
// @Tags         pending-clients
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user when no bearer token is sent"
// @Param        request body tierapp.PendingClientRequest true "Client and account opening request"
// @Success      201 {object} dto.Response{data=tierapp.PendingClientResponse}
// @Failure      400 {object} dto.Response
// @Router       /pending-clients [post]
func (h *ClientHandler) Submit(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req tierapp.PendingClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.approvals.Submit(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, out)
}

// List godoc
// @Summary      List pending clients
// @Tags         pending-clients
// @Produce      json
// @Param        status query string false "pending or rejected"
// @Param        mine query bool false "Only the caller's submissions"
// @Success      200 {object} dto.Response{data=[]tierapp.PendingClientResponse}
// @Router       /pending-clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var q PendingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	filter := tier.PendingFilter{Filter: q.Filter(), Status: tier.PendingStatus(q.Status)}
	if q.Mine {
		userID, ok := h.requireUser(c)
		if !ok {
			return
		}
		filter.CreatedBy = userID
	}
	page, err := h.approvals.ListPending(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get a pending client
// @Tags         pending-clients
// @Produce      json
// @Param        id path int true "Pending client ID"
// @Success      200 {object} dto.Response{data=tierapp.PendingClientResponse}
// @Failure      404 {object} dto.Response
// @Router       /pending-clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.approvals.GetPending(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Resubmit godoc
// @Summary      Correct and resubmit a pending client
// @Tags         pending-clients
// @Accept       json
// @Produce      json
// @Param        id path int true "Pending client ID"
// @Param        request body tierapp.PendingClientRequest true "Client and account opening request"
// @Success      200 {object} dto.Response{data=tierapp.PendingClientResponse}
// @Router       /pending-clients/{id} [put]
func (h *ClientHandler) Resubmit(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tierapp.PendingClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.approvals.Resubmit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Approve godoc
// @Summary      Approve a pending client
// @Description  Creates the tier, its account opening request and the audit entry in one transaction.
// @Tags         pending-clients
// @Produce      json
// @Param        id path int true "Pending client ID"
// @Success      200 {object} dto.Response{data=tierapp.TierResponse}
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /pending-clients/{id}/approve [post]
func (h *ClientHandler) Approve(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.approvals.Approve(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Reject godoc
// @Summary      Reject a pending client
// @Tags         pending-clients
// @Accept       json
// @Param        id path int true "Pending client ID"
// @Param        request body tierapp.RejectRequest false "Reason"
// @Success      204
// @Router       /pending-clients/{id}/reject [post]
func (h *ClientHandler) Reject(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tierapp.RejectRequest
	// The body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	if err := h.approvals.Reject(c.Request.Context(), id, userID, strings.TrimSpace(req.Reason)); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// History godoc
// @Summary      Approval history of the caller
// @Tags         pending-clients
// @Produce      json
// @Success      200 {object} dto.Response{data=[]tierapp.ApprovalHistoryResponse}
// @Router       /clients/approval-history [get]
func (h *ClientHandler) History(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.approvals.History(c.Request.Context(), userID, q.Filter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}
