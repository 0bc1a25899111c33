package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInsufficientStock_Shortfall(t *testing.T) {
	err := NewInsufficientStock("p-1", 3, 1)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, 2, err.Details["shortfall"])
	assert.Equal(t, "p-1", err.Details["productId"])
}

func TestNewInsufficientStock_NeverNegative(t *testing.T) {
	err := NewInsufficientStock("p-1", 1, 4)
	assert.Equal(t, 0, err.Details["shortfall"])
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	base := NewNotFound("product", "abc")
	wrapped := fmt.Errorf("lookup: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
}

func TestNewRetryConflict_KeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := NewRetryConflict(cause)

	assert.True(t, IsConflict(err))
	assert.Equal(t, RetryMessage, err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestNewUnavailableSerials(t *testing.T) {
	err := NewUnavailableSerials("p-9", 3, []string{"SN-2"})

	assert.True(t, IsInsufficientStock(err))
	assert.Equal(t, 1, err.Details["shortfall"])
	assert.Equal(t, 2, err.Details["available"])
	assert.Equal(t, []string{"SN-2"}, err.Details["unavailableSerials"])
}

func TestNew_UnknownCodeIsServerError(t *testing.T) {
	err := New("SOMETHING_ELSE", "odd")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, http.StatusForbidden, NewForbidden("no").HTTPStatus)
}
