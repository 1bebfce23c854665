package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tierapp "github.com/traitedesk/backend/internal/application/tier"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
)

type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) Submit(ctx context.Context, userID string, req tierapp.PendingClientRequest) (*tierapp.PendingClientResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tierapp.PendingClientResponse), args.Error(1)
}

func (m *MockApprovalService) GetPending(ctx context.Context, id int64) (*tierapp.PendingClientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tierapp.PendingClientResponse), args.Error(1)
}

func (m *MockApprovalService) ListPending(ctx context.Context, filter tier.PendingFilter) (shared.Paginated[tierapp.PendingClientResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[tierapp.PendingClientResponse]), args.Error(1)
}

func (m *MockApprovalService) Resubmit(ctx context.Context, id int64, req tierapp.PendingClientRequest) (*tierapp.PendingClientResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tierapp.PendingClientResponse), args.Error(1)
}

func (m *MockApprovalService) Approve(ctx context.Context, id int64, userID string) (*tierapp.TierResponse, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tierapp.TierResponse), args.Error(1)
}

func (m *MockApprovalService) Reject(ctx context.Context, id int64, userID, reason string) error {
	return m.Called(ctx, id, userID, reason).Error(0)
}

func (m *MockApprovalService) History(ctx context.Context, userID string, filter shared.Filter) (shared.Paginated[tierapp.ApprovalHistoryResponse], error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(shared.Paginated[tierapp.ApprovalHistoryResponse]), args.Error(1)
}

func newClientRouter(svc *MockApprovalService) *gin.Engine {
	r := newTestRouter()
	h := NewClientHandler(svc)
	g := r.Group("/api/v1/pending-clients")
	g.POST("", h.Submit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Resubmit)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
	r.GET("/api/v1/clients/approval-history", h.History)
	return r
}

func pendingBody() map[string]any {
	return map[string]any{
		"nom_raison_sociale": "Boulangerie du Port",
		"categorie":          "Clients",
		"type_tiers":         "Client",
		"opening": map[string]any{
			"montant_facture": 250000,
			"etablissement":   "Douala",
		},
	}
}

func TestClientHandler_Submit(t *testing.T) {
	svc := new(MockApprovalService)
	r := newClientRouter(svc)

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients", body: pendingBody()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.On("Submit", mock.Anything, "agent-1", mock.MatchedBy(func(req tierapp.PendingClientRequest) bool {
		return req.NomRaisonSociale == "Boulangerie du Port"
	})).Return(&tierapp.PendingClientResponse{ID: 4, CreatedBy: "agent-1", Status: string(tier.PendingStatusPending)}, nil)

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients", body: pendingBody(), user: "agent-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "agent-1", decode(t, w).Data.(map[string]any)["created_by"])
	svc.AssertExpectations(t)
}

func TestClientHandler_List(t *testing.T) {
	svc := new(MockApprovalService)
	r := newClientRouter(svc)

	svc.On("ListPending", mock.Anything, tier.PendingFilter{
		Filter:    shared.Filter{Page: 1, PageSize: shared.DefaultPageSize},
		Status:    tier.PendingStatusRejected,
		CreatedBy: "agent-1",
	}).Return(shared.NewPaginated[tierapp.PendingClientResponse](nil, 0, 1, shared.DefaultPageSize), nil)

	w := perform(r, request{method: http.MethodGet, path: "/api/v1/pending-clients?status=rejected&mine=true", user: "agent-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{}, decode(t, w).Data)

	w = perform(r, request{method: http.MethodGet, path: "/api/v1/pending-clients?mine=true"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, request{method: http.MethodGet, path: "/api/v1/pending-clients?status=approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestClientHandler_Approve(t *testing.T) {
	svc := new(MockApprovalService)
	r := newClientRouter(svc)

	tierResp := &tierapp.TierResponse{ID: 12}
	tierResp.NumeroCompte = "411000012"
	svc.On("Approve", mock.Anything, int64(4), "reviewer-1").Return(tierResp, nil)
	svc.On("Approve", mock.Anything, int64(5), "reviewer-1").Return(nil, tierapp.ErrNotAwaitingReview)
	svc.On("Approve", mock.Anything, int64(6), "reviewer-1").Return(nil, shared.OperationFailed(errors.New("insert tier: connection reset")))

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/4/approve", user: "reviewer-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "411000012", decode(t, w).Data.(map[string]any)["numero_compte"])

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/5/approve", user: "reviewer-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", decode(t, w).Error.Code)

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/6/approve", user: "reviewer-1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ERR_OPERATION_FAILED", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "connection reset")

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/4/approve"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNumberOfCalls(t, "Approve", 3)
}

func TestClientHandler_Reject(t *testing.T) {
	svc := new(MockApprovalService)
	r := newClientRouter(svc)

	svc.On("Reject", mock.Anything, int64(4), "reviewer-1", "").Return(nil).Once()
	svc.On("Reject", mock.Anything, int64(4), "reviewer-1", "RIB manquant").Return(nil).Once()

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/4/reject", user: "reviewer-1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/pending-clients/4/reject", user: "reviewer-1",
		body: map[string]string{"reason": "  RIB manquant "}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestClientHandler_History(t *testing.T) {
	svc := new(MockApprovalService)
	r := newClientRouter(svc)

	approved := int64(12)
	svc.On("History", mock.Anything, "reviewer-1", shared.Filter{Page: 1, PageSize: shared.DefaultPageSize}).
		Return(shared.NewPaginated([]tierapp.ApprovalHistoryResponse{
			{ID: 1, PendingID: 4, ApprovedTierID: &approved, Status: "approved", ClientName: "Boulangerie du Port"},
		}, 1, 1, shared.DefaultPageSize), nil)

	w := perform(r, request{method: http.MethodGet, path: "/api/v1/clients/approval-history", user: "reviewer-1"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Len(t, resp.Data, 1)

	assert.Equal(t, http.StatusUnauthorized, perform(r, request{method: http.MethodGet, path: "/api/v1/clients/approval-history"}).Code)
}
