package promotion

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPercentage   Kind = "PERCENTAGE"
	KindFixedAmount  Kind = "FIXED_AMOUNT"
	KindFreeShipping Kind = "FREE_SHIPPING"
	KindBuyTwoGetOne Kind = "BUY2_GET1"
)

func (k Kind) String() string {
	return string(k)
}

// Rules is the JSON rule set stored with a promotion. Zero values mean the
// rule is not set.
type Rules struct {
	MinPurchase int64   `json:"min_purchase,omitempty"`
	MaxDiscount int64   `json:"max_discount,omitempty"`
	ProductIDs  []int64 `json:"product_ids,omitempty"`
}

type Promotion struct {
	ID             int64           `json:"id"`
	BusinessID     int64           `json:"business_id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Kind           Kind            `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	Rules          Rules           `json:"rules"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         *time.Time      `json:"ends_at,omitempty"`
	Active         bool            `json:"active"`
	UsesTotalLimit *int            `json:"uses_total_limit,omitempty"`
	UsesCurrent    int             `json:"uses_current"`
}

// Limited reports whether the promotion has a total usage cap. A cap of zero
// counts as no cap.
func (p *Promotion) Limited() bool {
	return p.UsesTotalLimit != nil && *p.UsesTotalLimit > 0
}

// Line is the view of a priced cart line the engine needs.
type Line struct {
	ProductID  int64
	CategoryID *int64
	Quantity   int
	UnitPrice  int64
}

// Result is a successful coupon validation.
type Result struct {
	Promotion    *Promotion
	Discount     int64
	FreeShipping bool
}
