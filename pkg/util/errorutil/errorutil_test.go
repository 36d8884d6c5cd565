package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusInternalServerError},
		{NewBadRequest("missing", nil), "BAD_REQUEST", http.StatusBadRequest},
		{NewNotFound("Ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("nope"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewConflict("busy", nil), "CONFLICT", http.StatusConflict},
		{NewPersistenceError("down", errors.New("dial tcp")), "PERSISTENCE_ERROR", http.StatusInternalServerError},
		{NewInternalError(nil), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
		assert.True(t, IsCode(tc.err, tc.code))
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("Ticket", map[string]any{"id": "42"})
	assert.Equal(t, "Ticket not found", err.Error())
	assert.Equal(t, "42", ToDomainError(err).Details["id"])
}

func TestToDomainErrorUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewConflict("busy", nil))
	assert.Equal(t, "CONFLICT", ToDomainError(wrapped).Code)

	plain := ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
	assert.Equal(t, "boom", plain.Cause())
	assert.Nil(t, ToDomainError(nil))
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError("ticket store unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection refused", ToDomainError(err).Cause())
}

func TestWithMessageOnlyRewritesServerErrors(t *testing.T) {
	cause := errors.New("connection refused")
	rewritten := WithMessage(NewPersistenceError("ticket store unavailable", cause), "Failed to fetch tickets")
	domainErr := ToDomainError(rewritten)
	require.NotNil(t, domainErr)
	assert.Equal(t, "Failed to fetch tickets", domainErr.Message)
	assert.Equal(t, "PERSISTENCE_ERROR", domainErr.Code)
	assert.ErrorIs(t, rewritten, cause)

	notFound := NewNotFound("Ticket", nil)
	assert.Same(t, notFound, WithMessage(notFound, "Failed to fetch ticket"))
	assert.Nil(t, WithMessage(nil, "ignored"))
}

func TestWithMessageKeepsValidationMessageAsCause(t *testing.T) {
	details := map[string]any{"fields": []string{"subject"}}
	original := NewValidationError("Ticket validation failed", details)

	rewritten := WithMessage(original, "Failed to create ticket")
	domainErr := ToDomainError(rewritten)
	require.NotNil(t, domainErr)
	assert.Equal(t, "Failed to create ticket", domainErr.Message)
	assert.Equal(t, "Ticket validation failed", domainErr.Cause())
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.Equal(t, details, domainErr.Details)
	assert.True(t, IsValidation(rewritten))
	assert.ErrorIs(t, rewritten, original)

	badRequest := NewBadRequest("Assigned user ID is required", nil)
	assert.Same(t, badRequest, WithMessage(badRequest, "Failed to assign ticket"))
	assert.False(t, IsValidation(badRequest))
}
