package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
)

func TestFromErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"bad request", apperrors.ErrBadRequest, http.StatusBadRequest, "bad_request"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"validation", apperrors.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := apperrors.FromError(tt.err)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestFromErrorUnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading contract: %w", apperrors.ErrNotFound)

	appErr := apperrors.FromError(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestFromErrorKeepsAppError(t *testing.T) {
	original := apperrors.BadRequest("contract end date must not be before start date")

	appErr := apperrors.FromError(fmt.Errorf("create: %w", original))
	assert.Same(t, original, appErr)
}

func TestConstructors(t *testing.T) {
	notFound := apperrors.NotFound("Contract", int64(42))
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
	assert.Equal(t, "Contract with ID 42 not found", notFound.Message)
	assert.ErrorIs(t, notFound, apperrors.ErrNotFound)

	conflict := apperrors.Conflict("User", "email", "user@example.com")
	assert.Equal(t, http.StatusConflict, conflict.StatusCode)
	assert.Equal(t, "User with email user@example.com already exists", conflict.Message)

	unauthorized := apperrors.Unauthorized("")
	assert.Equal(t, "Authentication required", unauthorized.Message)

	forbidden := apperrors.Forbidden("")
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)
}

func TestValidationErrorCarriesData(t *testing.T) {
	details := []map[string]string{{"field": "name", "message": "This field is required"}}

	appErr := apperrors.ValidationError(details)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Equal(t, details, appErr.Data.([]map[string]string))
}

func TestWithDataDoesNotMutateOriginal(t *testing.T) {
	original := apperrors.BadRequest("bad input")

	enriched := original.WithData("details")
	assert.Equal(t, "details", enriched.Data)
	assert.Nil(t, original.Data)
	assert.Equal(t, original.Message, enriched.Message)
}

func TestWrap(t *testing.T) {
	err := apperrors.Wrap(apperrors.ErrTimeout, "calling storage")
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Equal(t, "calling storage: request timeout", err.Error())
}
