package catalog

import (
	"slices"

	"github.com/lib/pq"
)

type BusinessKind string

const (
	KindRetail      BusinessKind = "RETAIL"
	KindDistributor BusinessKind = "WHOLESALE_DISTRIBUTOR"
)

func (k BusinessKind) String() string {
	return string(k)
}

type Business struct {
	ID                 int64          `json:"id" db:"id"`
	Slug               string         `json:"slug" db:"slug"`
	Name               string         `json:"name" db:"name"`
	PaymentMethods     pq.StringArray `json:"payment_methods" db:"payment_methods"`
	DeliveryTypes      pq.StringArray `json:"delivery_types" db:"delivery_types"`
	AcceptsOrders      bool           `json:"accepts_orders" db:"accepts_orders"`
	Kind               BusinessKind   `json:"kind" db:"kind"`
	MinimumOrderAmount int64          `json:"minimum_order_amount" db:"minimum_order_amount"`
	Active             bool           `json:"active" db:"active"`
}

func (b *Business) AcceptsPaymentMethod(method string) bool {
	return slices.Contains(b.PaymentMethods, method)
}

func (b *Business) AcceptsDeliveryType(deliveryType string) bool {
	return slices.Contains(b.DeliveryTypes, deliveryType)
}

type Product struct {
	ID                   int64  `json:"id" db:"id"`
	BusinessID           int64  `json:"business_id" db:"business_id"`
	CategoryID           *int64 `json:"category_id,omitempty" db:"category_id"`
	Name                 string `json:"name" db:"name"`
	Price                int64  `json:"price" db:"price"`
	WholesalePrice       *int64 `json:"wholesale_price,omitempty" db:"wholesale_price"`
	WholesaleThreshold   *int   `json:"wholesale_threshold,omitempty" db:"wholesale_threshold"`
	MinimumOrderQuantity int    `json:"minimum_order_quantity" db:"minimum_order_quantity"`
	Unit                 string `json:"unit" db:"unit"`
	InStock              bool   `json:"in_stock" db:"in_stock"`
}

// HasWholesaleTier reports whether both wholesale fields are set.
func (p *Product) HasWholesaleTier() bool {
	return p.WholesalePrice != nil && p.WholesaleThreshold != nil
}
