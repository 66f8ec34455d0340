package promotion

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is one of Percentage, FixedAmount, FreeShipping or BuyTwoGetOne.
// The set is closed: the unexported method keeps other packages from adding
// variants.
type Discount interface {
	amount(total int64, lines []Line) int64
}

type Percentage struct {
	Rate decimal.Decimal
	// Cap limits the discount when positive.
	Cap int64
}

type FixedAmount struct {
	Amount int64
}

// FreeShipping never reduces the merchandise total. The caller drops the
// delivery cost.
type FreeShipping struct{}

// BuyTwoGetOne gives one unit free for every two units of the same product.
// Products restricts eligible products when non-empty.
type BuyTwoGetOne struct {
	Products map[int64]struct{}
}

func (d Percentage) amount(total int64, _ []Line) int64 {
	a := decimal.NewFromInt(total).Mul(d.Rate).Div(hundred).Floor().IntPart()
	if d.Cap > 0 && a > d.Cap {
		a = d.Cap
	}
	return a
}

func (d FixedAmount) amount(int64, []Line) int64 {
	return d.Amount
}

func (FreeShipping) amount(int64, []Line) int64 {
	return 0
}

func (d BuyTwoGetOne) amount(_ int64, lines []Line) int64 {
	var a int64
	for _, l := range lines {
		if len(d.Products) > 0 {
			if _, ok := d.Products[l.ProductID]; !ok {
				continue
			}
		}
		pairs := int64(l.Quantity / 2)
		a += pairs * l.UnitPrice
	}
	return a
}

// Apply computes the discount d grants on a cart. Except for FreeShipping the
// result never exceeds total.
func Apply(d Discount, total int64, lines []Line) int64 {
	a := d.amount(total, lines)
	if a < 0 {
		a = 0
	}
	if _, free := d.(FreeShipping); !free && a > total {
		a = total
	}
	return a
}

// Discount builds the discount variant for the promotion's kind.
func (p *Promotion) Discount() (Discount, error) {
	switch p.Kind {
	case KindPercentage:
		return Percentage{Rate: p.Value, Cap: p.Rules.MaxDiscount}, nil
	case KindFixedAmount:
		// Fixed amounts are stored in minor units and must not carry a fraction.
		if !p.Value.IsInteger() {
			return nil, fmt.Errorf("fixed amount %s of promotion %d is not a whole number of minor units", p.Value, p.ID)
		}
		return FixedAmount{Amount: p.Value.IntPart()}, nil
	case KindFreeShipping:
		return FreeShipping{}, nil
	case KindBuyTwoGetOne:
		var products map[int64]struct{}
		if len(p.Rules.ProductIDs) > 0 {
			products = make(map[int64]struct{}, len(p.Rules.ProductIDs))
			for _, id := range p.Rules.ProductIDs {
				products[id] = struct{}{}
			}
		}
		return BuyTwoGetOne{Products: products}, nil
	default:
		return nil, fmt.Errorf("unknown promotion kind %q", p.Kind)
	}
}
