package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/interfaces/http/dto"
)

type sampleRequest struct {
	Montant int64  `json:"montant" binding:"required,gt=0"`
	Email   string `json:"email" binding:"omitempty,email"`
}

func TestHandleValidationError_Binding(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req sampleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"email":"nope"}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["montant"])
	assert.Equal(t, "Invalid email format", fields["email"])
}

func TestValidationDetails_Domain(t *testing.T) {
	errs := shared.ValidationErrors{}
	errs.Add("statut", "unknown status")
	errs.Add("agios", "must be tireur or tiré")

	details := ValidationDetails(errs)
	require.Len(t, details, 2)
	assert.Equal(t, "agios", details[0].Field)

	assert.Nil(t, ValidationDetails(assert.AnError))
}
