package handler

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/application/document"
	traiteapp "github.com/traitedesk/backend/internal/application/traite"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
	"github.com/traitedesk/backend/internal/infrastructure/printing"
)

type MockTraiteService struct {
	mock.Mock
}

func (m *MockTraiteService) Create(ctx context.Context, req traiteapp.TraiteRequest) (*traiteapp.TraiteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*traiteapp.TraiteResponse), args.Error(1)
}

func (m *MockTraiteService) Get(ctx context.Context, id int64) (*traiteapp.TraiteResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*traiteapp.TraiteResponse), args.Error(1)
}

func (m *MockTraiteService) List(ctx context.Context, filter traite.ListFilter) (shared.Paginated[traiteapp.TraiteResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[traiteapp.TraiteResponse]), args.Error(1)
}

func (m *MockTraiteService) Update(ctx context.Context, id int64, req traiteapp.TraiteRequest) (*traiteapp.TraiteResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*traiteapp.TraiteResponse), args.Error(1)
}

func (m *MockTraiteService) UpdateStatus(ctx context.Context, id int64, label string) (*traiteapp.TraiteResponse, error) {
	args := m.Called(ctx, id, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*traiteapp.TraiteResponse), args.Error(1)
}

func (m *MockTraiteService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTraiteService) ImportCSV(ctx context.Context, r io.Reader) (*csvimport.Result, error) {
	raw, _ := io.ReadAll(r)
	args := m.Called(ctx, string(raw))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*csvimport.Result), args.Error(1)
}

type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) Render(ctx context.Context, id int64, mode document.Mode) (*document.Document, error) {
	args := m.Called(ctx, id, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func newTraiteRouter(svc *MockTraiteService, docs *MockDocumentRenderer) *gin.Engine {
	r := newTestRouter()
	h := NewTraiteHandler(svc, docs)
	g := r.Group("/api/v1/traites")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/import", h.Import)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.GET("/:id/document", h.Document)
	return r
}

func sampleTraiteResponse() *traiteapp.TraiteResponse {
	return &traiteapp.TraiteResponse{
		ID:               7,
		Numero:           "TR-202501-000007",
		NombreTraites:    3,
		Montant:          1_500_000,
		MontantFormate:   "1 500 000",
		NomRaisonSociale: "GARAGE CENTRAL",
		Statut:           string(traite.StatusNonEchu),
	}
}

func TestTraiteHandler_Create(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	body := map[string]any{
		"nombre_traites":     3,
		"date_emission":      "2025-01-20",
		"echeance":           "2025-01-31",
		"montant":            1500000,
		"nom_raison_sociale": "Garage Central",
	}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req traiteapp.TraiteRequest) bool {
		return req.Montant == 1_500_000 && req.NombreTraites == 3
	})).Return(sampleTraiteResponse(), nil)

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/traites", body: body})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "TR-202501-000007", resp.Data.(map[string]any)["numero"])
	svc.AssertExpectations(t)
}

func TestTraiteHandler_Create_BindingErrors(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/traites", body: map[string]any{"montant": 10}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	fields := map[string]bool{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["nom_raison_sociale"])
	assert.True(t, fields["echeance"])

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/traites", body: "{not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_JSON", decode(t, w).Error.Code)

	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTraiteHandler_Create_Conflict(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, traiteapp.ErrNumeroExists)

	w := perform(r, request{method: http.MethodPost, path: "/api/v1/traites", body: map[string]any{
		"numero": "TR-1", "date_emission": "2025-01-20", "echeance": "2025-01-31",
		"montant": 10, "nom_raison_sociale": "X",
	}})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_ALREADY_EXISTS", decode(t, w).Error.Code)
}

func TestTraiteHandler_List(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	svc.On("List", mock.Anything, mock.MatchedBy(func(f traite.ListFilter) bool {
		return f.Page == 2 && f.PageSize == 100 && f.Alpha == "G" &&
			f.Statut == traite.StatusEchu &&
			f.DateFrom != nil && f.DateFrom.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			f.DateTo != nil && f.DateTo.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	})).Return(shared.NewPaginated([]traiteapp.TraiteResponse{*sampleTraiteResponse()}, 101, 2, 100), nil)

	w := perform(r, request{method: http.MethodGet, path: "/api/v1/traites?page=2&page_size=500&alpha=g&statut=echu&date_from=2025-03-31&date_to=01/01/2025"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(101), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	assert.Len(t, resp.Data, 1)
	svc.AssertExpectations(t)
}

func TestTraiteHandler_List_PerPage(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"per_page=50", 50},
		{"per_page=0", shared.DefaultPageSize},
		{"per_page=-5", shared.DefaultPageSize},
		{"per_page=5000", shared.MaxPageSize},
		{"per_page=20&page_size=70", 20},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := new(MockTraiteService)
			r := newTraiteRouter(svc, nil)

			svc.On("List", mock.Anything, mock.MatchedBy(func(f traite.ListFilter) bool {
				return f.Page == 1 && f.PageSize == tt.want
			})).Return(shared.NewPaginated([]traiteapp.TraiteResponse{}, 0, 1, tt.want), nil)

			w := perform(r, request{method: http.MethodGet, path: "/api/v1/traites?" + tt.query})

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestTraiteHandler_List_InvalidQuery(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	w := perform(r, request{method: http.MethodGet, path: "/api/v1/traites?statut=archive&date_from=soon"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode(t, w).Error.Details, 2)
}

func TestTraiteHandler_GetUpdateDelete(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	svc.On("Get", mock.Anything, int64(7)).Return(sampleTraiteResponse(), nil)
	svc.On("Get", mock.Anything, int64(8)).Return(nil, shared.ErrNotFound)
	svc.On("UpdateStatus", mock.Anything, int64(7), "payé").Return(sampleTraiteResponse(), nil)
	svc.On("Delete", mock.Anything, int64(7)).Return(nil)

	assert.Equal(t, http.StatusOK, perform(r, request{method: http.MethodGet, path: "/api/v1/traites/7"}).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, request{method: http.MethodGet, path: "/api/v1/traites/8"}).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, request{method: http.MethodGet, path: "/api/v1/traites/abc"}).Code)

	w := perform(r, request{method: http.MethodPatch, path: "/api/v1/traites/7/status", body: map[string]string{"statut": "payé"}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, request{method: http.MethodDelete, path: "/api/v1/traites/7"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestTraiteHandler_Document(t *testing.T) {
	docs := new(MockDocumentRenderer)
	r := newTraiteRouter(new(MockTraiteService), docs)

	docs.On("Render", mock.Anything, int64(7), document.ModePDFLetterhead).Return(&document.Document{
		Data:        []byte("%PDF-1.4"),
		ContentType: printing.ContentTypePDF,
		Filename:    "traite-TR-202501-000007.pdf",
		Renderer:    "chromedp",
	}, nil)
	docs.On("Render", mock.Anything, int64(7), document.ModeTestImage).Return(nil,
		printing.NewRenderError(printing.ErrCodeRenderTimeout, "Rendering timed out", context.DeadlineExceeded))

	w := perform(r, request{method: http.MethodGet, path: "/api/v1/traites/7/document"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, printing.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="traite-TR-202501-000007.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "chromedp", w.Header().Get("X-Renderer"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	w = perform(r, request{method: http.MethodGet, path: "/api/v1/traites/7/document?mode=TEST-IMAGE"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), printing.ErrCodeRenderTimeout)

	w = perform(r, request{method: http.MethodGet, path: "/api/v1/traites/7/document?mode=fax"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	docs.AssertNumberOfCalls(t, "Render", 2)
}

func TestTraiteHandler_Import(t *testing.T) {
	svc := new(MockTraiteService)
	r := newTraiteRouter(svc, nil)

	csv := "nom_raison_sociale;montant;date_emission;echeance\nGarage;1000;2025-01-01;2025-02-01\n"
	svc.On("ImportCSV", mock.Anything, csv).Return(&csvimport.Result{TotalRows: 1, Imported: 1, CreatedIDs: []int64{3}}, nil)

	w := upload(r, "/api/v1/traites/import", "", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w).Data.(map[string]any)["imported"])

	w = perform(r, request{method: http.MethodPost, path: "/api/v1/traites/import"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
