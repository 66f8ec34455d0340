// Package pricing picks the unit price a cart line is charged.
package pricing

import (
	"math"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/catalog"
)

// Resolve returns the unit price for quantity units of p sold by a business of
// the given kind. Topping surcharges are not included.
//
// Distributors enforce the product's minimum order quantity and switch to the
// wholesale price once quantity reaches the wholesale threshold.
func Resolve(p catalog.Product, quantity int, kind catalog.BusinessKind) (int64, error) {
	if kind != catalog.KindDistributor {
		return p.Price, nil
	}

	minimum := p.MinimumOrderQuantity
	if minimum < 1 {
		minimum = 1
	}
	if quantity < minimum {
		return 0, apperr.New(apperr.ErrBelowMinimumQuantity,
			"product '%s' requires a minimum of %d %s", p.Name, minimum, unitLabel(p))
	}

	if p.HasWholesaleTier() && quantity >= *p.WholesaleThreshold {
		return *p.WholesalePrice, nil
	}

	return p.Price, nil
}

// MaxQuantity is the largest quantity a single cart line may carry.
const MaxQuantity = math.MaxInt32

// LineSubtotal is (unitPrice + surcharge) × quantity. ok is false when the
// result does not fit in an int64.
func LineSubtotal(unitPrice, surcharge int64, quantity int) (subtotal int64, ok bool) {
	if unitPrice < 0 || surcharge < 0 || quantity < 0 {
		return 0, false
	}
	if surcharge > math.MaxInt64-unitPrice {
		return 0, false
	}
	unit := unitPrice + surcharge
	if quantity > 0 && unit > math.MaxInt64/int64(quantity) {
		return 0, false
	}
	return unit * int64(quantity), true
}

func unitLabel(p catalog.Product) string {
	if p.Unit == "" {
		return "units"
	}
	return p.Unit
}
