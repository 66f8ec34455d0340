package pricing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/catalog"
	"github.com/pedilo/storefront/internal/pricing"
)

func ptr[T any](v T) *T { return &v }

func wholesaleProduct() catalog.Product {
	return catalog.Product{
		ID:                   1,
		Name:                 "Flour 1kg",
		Price:                1000,
		WholesalePrice:       ptr(int64(800)),
		WholesaleThreshold:   ptr(10),
		MinimumOrderQuantity: 1,
		Unit:                 "bags",
		InStock:              true,
	}
}

func TestResolve_RetailAlwaysListPrice(t *testing.T) {
	p := wholesaleProduct()
	p.MinimumOrderQuantity = 5

	price, err := pricing.Resolve(p, 50, catalog.KindRetail)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price, "retail ignores the wholesale tier")

	price, err = pricing.Resolve(p, 1, catalog.KindRetail)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price, "retail ignores the minimum quantity")
}

func TestResolve_WholesaleBreakpoint(t *testing.T) {
	p := wholesaleProduct()

	below, err := pricing.Resolve(p, 9, catalog.KindDistributor)
	require.NoError(t, err)
	assert.Equal(t, int64(1000*9), lineSubtotal(t, below, 0, 9))

	at, err := pricing.Resolve(p, 10, catalog.KindDistributor)
	require.NoError(t, err)
	assert.Equal(t, int64(800*10), lineSubtotal(t, at, 0, 10))

	above, err := pricing.Resolve(p, 500, catalog.KindDistributor)
	require.NoError(t, err)
	assert.Equal(t, int64(800), above)
}

func TestResolve_NoWholesaleTier(t *testing.T) {
	p := wholesaleProduct()
	p.WholesalePrice = nil
	p.WholesaleThreshold = nil

	price, err := pricing.Resolve(p, 100, catalog.KindDistributor)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price)
}

func TestResolve_BelowMinimumQuantity(t *testing.T) {
	p := catalog.Product{ID: 2, Name: "Sugar", Price: 1000, MinimumOrderQuantity: 5, Unit: "bags"}

	_, err := pricing.Resolve(p, 3, catalog.KindDistributor)
	require.ErrorIs(t, err, apperr.ErrBelowMinimumQuantity)
	assert.Equal(t, "product 'Sugar' requires a minimum of 5 bags", err.Error())

	price, err := pricing.Resolve(p, 5, catalog.KindDistributor)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price)
}

func TestResolve_Idempotent(t *testing.T) {
	p := wholesaleProduct()
	for _, qty := range []int{1, 9, 10, 11} {
		first, err := pricing.Resolve(p, qty, catalog.KindDistributor)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := pricing.Resolve(p, qty, catalog.KindDistributor)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func lineSubtotal(t *testing.T, unitPrice, surcharge int64, quantity int) int64 {
	t.Helper()
	subtotal, ok := pricing.LineSubtotal(unitPrice, surcharge, quantity)
	require.True(t, ok, "subtotal of %d x (%d + %d) overflowed", quantity, unitPrice, surcharge)
	return subtotal
}

func TestLineSubtotal(t *testing.T) {
	assert.Equal(t, int64(17000), lineSubtotal(t, 8500, 0, 2))
	assert.Equal(t, int64(2*(1000+250)), lineSubtotal(t, 1000, 250, 2))
	assert.Equal(t, int64(8500)*pricing.MaxQuantity, lineSubtotal(t, 8500, 0, pricing.MaxQuantity))
}

func TestLineSubtotal_Overflow(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice int64
		surcharge int64
		quantity  int
	}{
		{name: "quantity wraps the product", unitPrice: 8500, quantity: 2170205185142301},
		{name: "price plus surcharge wraps", unitPrice: math.MaxInt64, surcharge: 1, quantity: 1},
		{name: "large price times two", unitPrice: math.MaxInt64/2 + 1, quantity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := pricing.LineSubtotal(tt.unitPrice, tt.surcharge, tt.quantity)
			assert.False(t, ok)
		})
	}
}
