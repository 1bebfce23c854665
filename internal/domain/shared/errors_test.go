package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading traite: %w", NewDomainError("NOT_FOUND", "Traite not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestOperationFailed_KeepsCause(t *testing.T) {
	cause := errors.New("insert account_opening_requests: disk full")
	err := OperationFailed(cause)

	assert.True(t, errors.Is(err, ErrOperationFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestValidationErrors(t *testing.T) {
	v := ValidationErrors{}
	assert.NoError(t, v.Err())

	v.Add("montant", "must be greater than or equal to 0")
	v.Add("montant", "ignored second message")
	v.Add("echeance", "is required")

	assert.True(t, v.HasErrors())
	fields := v.Fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, "echeance", fields[0].Field)
	assert.Equal(t, "must be greater than or equal to 0", fields[1].Message)

	var target ValidationErrors
	assert.True(t, errors.As(v.Err(), &target))
}
