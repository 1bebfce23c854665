package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/infrastructure/printing"
	"github.com/traitedesk/backend/internal/interfaces/http/dto"
)

func TestHandleDomainError(t *testing.T) {
	validation := shared.ValidationErrors{}
	validation.Add("montant", "must be positive")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"validation", validation, http.StatusBadRequest, dto.ErrCodeValidation, "Request validation failed"},
		{"wrapped validation", fmt.Errorf("create: %w", validation), http.StatusBadRequest, dto.ErrCodeValidation, ""},
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"already exists", shared.NewDomainError("ALREADY_EXISTS", "numero already used"), http.StatusConflict, dto.ErrCodeAlreadyExists, "numero already used"},
		{"invalid state", shared.ErrInvalidState, http.StatusConflict, dto.ErrCodeInvalidState, ""},
		{"operation failed", shared.OperationFailed(errors.New("insert client_approvals: disk full")), http.StatusInternalServerError, dto.ErrCodeOperationFailed, "Operation failed: insert client_approvals: disk full"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter()
			h := &BaseHandler{}
			r.GET("/x", func(c *gin.Context) { h.HandleDomainError(c, tt.err) })

			w := perform(r, request{method: http.MethodGet, path: "/x"})
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, resp.Error.Message)
			}
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestHandleDomainError_RenderError(t *testing.T) {
	r := newTestRouter()
	h := &BaseHandler{}
	renderErr := printing.NewRenderError(printing.ErrCodeRenderFailed, "All renderers failed", errors.New("chrome crashed"))
	renderErr.Errors = []string{"chromedp: chrome crashed", "wkhtmltopdf: binary not found"}
	r.GET("/x", func(c *gin.Context) { h.HandleDomainError(c, fmt.Errorf("render: %w", renderErr)) })

	w := perform(r, request{method: http.MethodGet, path: "/x"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp dto.RenderErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, printing.ErrCodeRenderFailed, resp.Code)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Len(t, resp.Errors, 2)
}

func TestListQuery_Filter(t *testing.T) {
	f := ListQuery{Page: 0, PageSize: 500}.Filter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, shared.MaxPageSize, f.PageSize)

	f = ListQuery{PageSize: -3}.Filter()
	assert.Equal(t, shared.DefaultPageSize, f.PageSize)

	f = ListQuery{PerPage: 25, PageSize: 80}.Filter()
	assert.Equal(t, 25, f.PageSize, "per_page wins over page_size")

	f = ListQuery{PageSize: 80}.Filter()
	assert.Equal(t, 80, f.PageSize)
}
