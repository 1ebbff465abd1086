package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrappedLookup(t *testing.T) {
	err := fmt.Errorf("force check: %w", NewNotFoundError("order not found", "ORD1"))

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	assert.Equal(t, "ORD1", appErr.Details)
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsConflictError(err))
	assert.Equal(t, "not_found: order not found (ORD1)", appErr.Error())
}

func TestAppError_PlainErrorIsNotApp(t *testing.T) {
	assert.Nil(t, GetAppError(errors.New("boom")))
	assert.False(t, IsValidationError(errors.New("boom")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(errors.New("Error 1062 (23000): Duplicate entry 'x' for key 'uk_orders_live_amount'")))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: orders.to_address, orders.chain")))
	assert.False(t, IsDuplicateError(errors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
