package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedilo/storefront/internal/apperr"
)

func TestNew_MatchesKind(t *testing.T) {
	err := apperr.New(apperr.ErrOutOfStock, "product '%s' is out of stock", "Pizza")

	require.ErrorIs(t, err, apperr.ErrOutOfStock)
	assert.Equal(t, "product 'Pizza' is out of stock", err.Error())
	assert.NotErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestNotFoundFamily(t *testing.T) {
	err := apperr.New(apperr.ErrProductNotFound, "product 7 not found")

	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrBusinessNotFound)
}

func TestReason(t *testing.T) {
	wrapped := fmt.Errorf("service: checkout failed: %w", apperr.New(apperr.ErrCouponExpired, "coupon has expired"))

	reason, ok := apperr.Reason(wrapped)
	require.True(t, ok)
	assert.Equal(t, "coupon has expired", reason)

	_, ok = apperr.Reason(errors.New("connection refused"))
	assert.False(t, ok)
}
