package order

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/pedilo/storefront/internal/promotion"
	"github.com/pedilo/storefront/internal/topping"
)

type OrderStatus string

// StatusPending is the only status checkout assigns. Later statuses belong to
// the merchant side.
const StatusPending OrderStatus = "PENDING"

func (os OrderStatus) String() string {
	return string(os)
}

// OrderLine keeps copies of the product name, price and toppings as they were
// at checkout. ProductID is nil once the product no longer exists.
type OrderLine struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"order_id"`
	ProductID   *int64             `json:"product_id"`
	ProductName string             `json:"product_name"`
	UnitPrice   int64              `json:"unit_price"`
	Quantity    int                `json:"quantity"`
	Subtotal    int64              `json:"subtotal"`
	Toppings    []topping.Selected `json:"toppings"`
	CreatedAt   time.Time          `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID   `json:"id"`
	BusinessID      int64       `json:"business_id"`
	Code            string      `json:"code"`
	Status          OrderStatus `json:"status"`
	Subtotal        int64       `json:"subtotal"`
	Discount        int64       `json:"discount"`
	Total           int64       `json:"total"`
	PromotionID     *int64      `json:"promotion_id"`
	FreeShipping    bool        `json:"free_shipping"`
	PaymentMethod   string      `json:"payment_method"`
	DeliveryType    string      `json:"delivery_type"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Lines           []OrderLine `json:"lines"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type CartLine struct {
	ProductID  int64
	Quantity   int
	ToppingIDs []int64
}

type CheckoutRequest struct {
	Slug            string
	PaymentMethod   string
	DeliveryType    string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	Notes           string
	CouponCode      string
	Items           []CartLine
}

type CouponCheckRequest struct {
	Slug  string
	Code  string
	Items []CartLine
}

// CouponCheck is the read-only outcome of applying a coupon to a cart.
type CouponCheck struct {
	Code         string
	PromotionID  int64
	Kind         promotion.Kind
	Subtotal     int64
	Discount     int64
	Total        int64
	FreeShipping bool
}
