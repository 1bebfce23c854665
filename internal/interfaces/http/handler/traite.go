package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/application/document"
	traiteapp "github.com/traitedesk/backend/internal/application/traite"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
	"github.com/traitedesk/backend/internal/interfaces/http/dto"
)

// TraiteService is the traite use-case surface the handler needs
type TraiteService interface {
	Create(ctx context.Context, req traiteapp.TraiteRequest) (*traiteapp.TraiteResponse, error)
	Get(ctx context.Context, id int64) (*traiteapp.TraiteResponse, error)
	List(ctx context.Context, filter traite.ListFilter) (shared.Paginated[traiteapp.TraiteResponse], error)
	Update(ctx context.Context, id int64, req traiteapp.TraiteRequest) (*traiteapp.TraiteResponse, error)
	UpdateStatus(ctx context.Context, id int64, label string) (*traiteapp.TraiteResponse, error)
	Delete(ctx context.Context, id int64) error
	ImportCSV(ctx context.Context, r io.Reader) (*csvimport.Result, error)
}

// DocumentRenderer renders a traite to PDF or PNG
type DocumentRenderer interface {
	Render(ctx context.Context, id int64, mode document.Mode) (*document.Document, error)
}

// MaxImportFileSize bounds uploaded CSV files
const MaxImportFileSize = 10 << 20

// TraiteHandler handles traite endpoints
type TraiteHandler struct {
	BaseHandler
	traites   TraiteService
	documents DocumentRenderer
}

// NewTraiteHandler creates a new TraiteHandler
func NewTraiteHandler(traites TraiteService, documents DocumentRenderer) *TraiteHandler {
	return &TraiteHandler{traites: traites, documents: documents}
}

// TraiteListQuery holds the traite list query parameters
type TraiteListQuery struct {
	ListQuery
	Alpha    string `form:"alpha"`
	Statut   string `form:"statut"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// ToFilter converts the query to a domain filter
func (q TraiteListQuery) ToFilter() (traite.ListFilter, error) {
	f := traite.ListFilter{Filter: q.Filter(), Alpha: q.Alpha}
	errs := shared.ValidationErrors{}

	if strings.TrimSpace(q.Statut) != "" {
		s, ok := traite.ParseStatus(q.Statut)
		if !ok {
			errs.Add("statut", "unknown status")
		}
		f.Statut = s
	}
	if d := traiteapp.ParseDate("date_from", q.DateFrom, errs); !d.IsZero() {
		f.DateFrom = &d
	}
	if d := traiteapp.ParseDate("date_to", q.DateTo, errs); !d.IsZero() {
		f.DateTo = &d
	}
	if err := errs.Err(); err != nil {
		return f, err
	}
	f.Normalize()
	return f, nil
}

// Create godoc
// @Summary      Create a traite
// @Description  Creates a traite. A blank numero is assigned from the numbering sequence.
// @Tags         traites
// @Accept       json
// @Produce      json
// @Param        request body traiteapp.TraiteRequest true "Traite"
// @Success      201 {object} dto.Response{data=traiteapp.TraiteResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /traites [post]
func (h *TraiteHandler) Create(c *gin.Context) {
	var req traiteapp.TraiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.traites.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, out)
}

// List godoc
// @Summary      List traites
// @Tags         traites
// @Produce      json
// @Param        page query int false "Page"
// @Param        per_page query int false "Page size (1-100, default 10); page_size is an alias"
// @Param        search query string false "Name, numero, amount or date"
// @Param        alpha query string false "Initial letter of the drawee, or #"
// @Param        statut query string false "Status"
// @Param        date_from query string false "Emission date lower bound"
// @Param        date_to query string false "Emission date upper bound"
// @Success      200 {object} dto.Response{data=[]traiteapp.TraiteResponse}
// @Router       /traites [get]
func (h *TraiteHandler) List(c *gin.Context) {
	var q TraiteListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	page, err := h.traites.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get a traite
// @Tags         traites
// @Produce      json
// @Param        id path int true "Traite ID"
// @Success      200 {object} dto.Response{data=traiteapp.TraiteResponse}
// @Failure      404 {object} dto.Response
// @Router       /traites/{id} [get]
func (h *TraiteHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.traites.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Update godoc
// @Summary      Update a traite
// @Tags         traites
// @Accept       json
// @Produce      json
// @Param        id path int true "Traite ID"
// @Param        request body traiteapp.TraiteRequest true "Traite"
// @Success      200 {object} dto.Response{data=traiteapp.TraiteResponse}
// @Router       /traites/{id} [put]
func (h *TraiteHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req traiteapp.TraiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.traites.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// UpdateStatus godoc
// @Summary      Change a traite status
// @Tags         traites
// @Accept       json
// @Produce      json
// @Param        id path int true "Traite ID"
// @Param        request body traiteapp.UpdateStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=traiteapp.TraiteResponse}
// @Router       /traites/{id}/status [patch]
func (h *TraiteHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req traiteapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	out, err := h.traites.UpdateStatus(c.Request.Context(), id, req.Statut)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, out)
}

// Delete godoc
// @Summary      Delete a traite
// @Tags         traites
// @Param        id path int true "Traite ID"
// @Success      204
// @Router       /traites/{id} [delete]
func (h *TraiteHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.traites.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Document godoc
// @Summary      Render a traite
// @Description  Renders every tranche of the traite. Modes: test-image, pdf-letterhead (default), full-page-screenshot, composited-pdf.
// @Tags         traites
// @Produce      application/pdf
// @Produce      image/png
// @Param        id path int true "Traite ID"
// @Param        mode query string false "Render mode"
// @Success      200 {file} binary
// @Failure      502 {object} dto.RenderErrorResponse
// @Router       /traites/{id}/document [get]
func (h *TraiteHandler) Document(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	mode, ok := document.ParseMode(c.Query("mode"))
	if !ok {
		errs := shared.ValidationErrors{}
		errs.Add("mode", "unknown render mode")
		h.HandleDomainError(c, errs)
		return
	}

	doc, err := h.documents.Render(c.Request.Context(), id, mode)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+doc.Filename+`"`)
	c.Header("X-Renderer", doc.Renderer)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// Import godoc
// @Summary      Import traites from CSV
// @Description  Each row becomes one traite. Failing rows are reported and the others are kept.
// @Tags         traites
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=csvimport.Result}
// @Router       /traites/import [post]
func (h *TraiteHandler) Import(c *gin.Context) {
	file, ok := h.uploadedCSV(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.traites.ImportCSV(c.Request.Context(), file)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// uploadedCSV opens the "file" form field
func (h *BaseHandler) uploadedCSV(c *gin.Context) (io.ReadCloser, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return nil, false
	}
	if header.Size > MaxImportFileSize {
		file.Close()
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 10MB")
		return nil, false
	}
	return file, true
}
