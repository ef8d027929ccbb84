package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Same(t, ErrInvalidToken, FromError(ErrInvalidToken))

	wrapped := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.Equal(t, http.StatusInternalServerError, wrapped.Status)
	assert.ErrorIs(t, wrapped, sql.ErrConnDone)
}

func TestWithCauseDoesNotMutateBase(t *testing.T) {
	cause := errors.New("signature is invalid")
	err := WithCause(ErrInvalidToken, cause)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrInvalidToken.Err)
	assert.Equal(t, ErrInvalidToken.MessageKey, err.MessageKey)
	assert.Equal(t, "invalid token: signature is invalid", err.Error())
}

func TestCloneOverridesMessage(t *testing.T) {
	clone := Clone(ErrUnauthorized, "invalid authorization header")
	assert.Equal(t, "invalid authorization header", clone.Message)
	assert.Equal(t, "unauthorized", ErrUnauthorized.Message)
	assert.Equal(t, ErrUnauthorized.Message, Clone(ErrUnauthorized, "").Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestValidationFieldNames(t *testing.T) {
	err := Validation(
		FieldError{Field: "PasswordRequiresUpper"},
		FieldError{Field: "DuplicateEmail"},
		FieldError{Field: "PasswordRequiresUpper"},
	)

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, []string{"DuplicateEmail", "PasswordRequiresUpper"}, err.FieldNames())
	assert.Empty(t, ErrValidation.Fields)
	assert.Nil(t, ErrValidation.FieldNames())
}

func TestRefreshInProgressLooksLikeInvalidRefresh(t *testing.T) {
	assert.Equal(t, ErrInvalidRefreshToken.Status, ErrRefreshInProgress.Status)
	assert.Equal(t, ErrInvalidRefreshToken.MessageKey, ErrRefreshInProgress.MessageKey)
}
