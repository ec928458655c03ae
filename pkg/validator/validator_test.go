package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/pkg/validator"
)

func TestValidateContractCreateRequest(t *testing.T) {
	v := validator.NewValidator()

	err := v.Validate(domain.ContractCreateRequest{Name: "Supply agreement"})
	assert.NoError(t, err)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := validator.NewValidator()

	err := v.Validate(domain.ContractCreateRequest{})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Len(t, validationErrors.Errors, 1)
	assert.Equal(t, "name", validationErrors.Errors[0].Field)
	assert.Equal(t, "This field is required", validationErrors.Errors[0].Message)
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	v := validator.NewValidator()

	badCurrency := "EURO"
	badCounterparty := "not-a-uuid"
	err := v.Validate(domain.ContractCreateRequest{
		Name:           "ab",
		Currency:       &badCurrency,
		CounterpartyID: &badCounterparty,
	})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	fields := make(map[string]string, len(validationErrors.Errors))
	for _, fieldErr := range validationErrors.Errors {
		fields[fieldErr.Field] = fieldErr.Message
	}
	assert.Equal(t, "Must be at least 3 characters long", fields["name"])
	assert.Equal(t, "Must be exactly 3 characters long", fields["currency"])
	assert.Contains(t, fields, "counterparty_id")
}

func TestValidateContractStatus(t *testing.T) {
	v := validator.NewValidator()

	for _, status := range []domain.ContractStatus{
		domain.ContractStatusDraft,
		domain.ContractStatusOnReview,
		domain.ContractStatusActive,
		domain.ContractStatusExpired,
		domain.ContractStatusTerminated,
	} {
		err := v.Validate(domain.ContractStatusUpdateRequest{Status: status})
		assert.NoError(t, err, "status %s", status)
	}

	err := v.Validate(domain.ContractStatusUpdateRequest{Status: "archived"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Len(t, validationErrors.Errors, 1)
	assert.Equal(t, "status", validationErrors.Errors[0].Field)
	assert.Equal(t, "Invalid contract status", validationErrors.Errors[0].Message)
}

func TestValidateUserCreateRequest(t *testing.T) {
	v := validator.NewValidator()

	err := v.Validate(domain.UserCreateRequest{
		Email:     "not-an-email",
		Password:  "short",
		FirstName: "Test",
		LastName:  "User",
		Role:      "superadmin",
	})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	fields := make(map[string]string, len(validationErrors.Errors))
	for _, fieldErr := range validationErrors.Errors {
		fields[fieldErr.Field] = fieldErr.Message
	}
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be at least 8 characters long", fields["password"])
	assert.Equal(t, "Must be one of: admin lawyer manager viewer", fields["role"])
}

func TestValidationErrorsMessage(t *testing.T) {
	err := validator.ValidationErrors{Errors: []validator.ValidationError{
		{Field: "name", Message: "This field is required"},
		{Field: "currency", Message: "Must be exactly 3 characters long"},
	}}

	assert.Equal(t, "name: This field is required; currency: Must be exactly 3 characters long", err.Error())
}
