package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/catalog"
	"github.com/pedilo/storefront/internal/pricing"
	"github.com/pedilo/storefront/internal/promotion"
	"github.com/pedilo/storefront/internal/topping"
)

const defaultCodeAttempts = 5

var ErrCodeAttemptsExhausted = errors.New("could not allocate a unique order code")

type Service interface {
	// Checkout prices, validates and persists a cart as a PENDING order.
	Checkout(ctx context.Context, req CheckoutRequest) (*Order, error)
	// CheckCoupon runs the same pricing as Checkout and reports what a coupon
	// would take off. Nothing is written.
	CheckCoupon(ctx context.Context, req CouponCheckRequest) (*CouponCheck, error)
	GetOrderByCode(ctx context.Context, slug, code string) (*Order, error)
}

type service struct {
	orderRepo    Repository
	catalog      catalog.Repository
	promotions   promotion.Service
	newCode      func() (string, error)
	codeAttempts int
}

type Option func(*service)

// WithCodeGenerator replaces NewCode.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *service) {
		s.newCode = gen
	}
}

// WithCodeAttempts sets how many codes are tried before giving up on a
// collision streak. Values below 1 are ignored.
func WithCodeAttempts(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

func NewService(orderRepo Repository, catalogRepo catalog.Repository, promotions promotion.Service, opts ...Option) Service {
	s := &service{
		orderRepo:    orderRepo,
		catalog:      catalogRepo,
		promotions:   promotions,
		newCode:      NewCode,
		codeAttempts: defaultCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pricedCart is a cart after pricing and topping validation.
type pricedCart struct {
	lines      []OrderLine
	promoLines []promotion.Line
	subtotal   int64
}

func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	business, err := s.business(ctx, req.Slug)
	if err != nil {
		return nil, err
	}

	if !business.AcceptsOrders {
		log.Warn().Str("slug", req.Slug).Msg("service: checkout on a business that does not accept orders")
		return nil, apperr.New(apperr.ErrOrderingDisabled, "this business is not accepting orders right now")
	}
	if !business.AcceptsPaymentMethod(req.PaymentMethod) {
		return nil, apperr.New(apperr.ErrPaymentMethodNotAllowed,
			"payment method '%s' is not accepted", req.PaymentMethod)
	}
	if !business.AcceptsDeliveryType(req.DeliveryType) {
		return nil, apperr.New(apperr.ErrDeliveryTypeNotAllowed,
			"delivery type '%s' is not available", req.DeliveryType)
	}

	cart, err := s.priceCart(ctx, business, req.Items)
	if err != nil {
		return nil, err
	}

	var promo *promotion.Result
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		promo, err = s.promotions.Validate(ctx, code, business.ID, cart.subtotal, cart.promoLines)
		if err != nil {
			return nil, err
		}
	}

	o := &Order{
		BusinessID:      business.ID,
		Status:          StatusPending,
		Subtotal:        cart.subtotal,
		PaymentMethod:   req.PaymentMethod,
		DeliveryType:    req.DeliveryType,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Notes:           strings.TrimSpace(req.Notes),
		Lines:           cart.lines,
	}
	if promo != nil {
		o.Discount = promo.Discount
		o.FreeShipping = promo.FreeShipping
		o.PromotionID = &promo.Promotion.ID
	}
	o.Total = max(0, o.Subtotal-o.Discount)

	if business.Kind == catalog.KindDistributor && business.MinimumOrderAmount > 0 && o.Total < business.MinimumOrderAmount {
		log.Warn().Int64("business_id", business.ID).Int64("total", o.Total).Msg("service: order below business minimum")
		return nil, apperr.New(apperr.ErrBelowMinimumOrder,
			"minimum order amount is %d, order total is %d", business.MinimumOrderAmount, o.Total)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inTx TxFunc
	if o.PromotionID != nil {
		promotionID := *o.PromotionID
		inTx = func(ctx context.Context, tx pgx.Tx) error {
			return s.promotions.CommitUsage(ctx, tx, promotionID)
		}
	}

	if err := s.persist(ctx, o, inTx); err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_code", o.Code).
		Int64("business_id", o.BusinessID).
		Int64("total", o.Total).
		Msg("service: order created successfully")

	return o, nil
}

// persist writes the order, drawing a new code whenever the previous one
// collides with an existing order of the same business.
func (s *service) persist(ctx context.Context, o *Order, inTx TxFunc) error {
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return fmt.Errorf("service: failed to generate order code: %w", err)
		}
		o.Code = code

		err = s.orderRepo.CreateOrder(ctx, o, inTx)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrDuplicateOrderCode) {
			log.Warn().Str("order_code", code).Int("attempt", attempt).Msg("service: order code collision, retrying")
			continue
		}

		var ruleErr *apperr.Error
		if errors.As(err, &ruleErr) {
			return err
		}

		log.Error().Err(err).Int64("business_id", o.BusinessID).Msg("service: failed to create order in repository")
		return fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Error().Int64("business_id", o.BusinessID).Int("attempts", s.codeAttempts).Msg("service: ran out of order codes")
	return fmt.Errorf("service: %w after %d attempts", ErrCodeAttemptsExhausted, s.codeAttempts)
}

func (s *service) CheckCoupon(ctx context.Context, req CouponCheckRequest) (*CouponCheck, error) {
	business, err := s.business(ctx, req.Slug)
	if err != nil {
		return nil, err
	}

	cart, err := s.priceCart(ctx, business, req.Items)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code)
	promo, err := s.promotions.Validate(ctx, code, business.ID, cart.subtotal, cart.promoLines)
	if err != nil {
		return nil, err
	}

	return &CouponCheck{
		Code:         promo.Promotion.Code,
		PromotionID:  promo.Promotion.ID,
		Kind:         promo.Promotion.Kind,
		Subtotal:     cart.subtotal,
		Discount:     promo.Discount,
		Total:        max(0, cart.subtotal-promo.Discount),
		FreeShipping: promo.FreeShipping,
	}, nil
}

func (s *service) GetOrderByCode(ctx context.Context, slug, code string) (*Order, error) {
	business, err := s.business(ctx, slug)
	if err != nil {
		return nil, err
	}

	code = NormalizeCode(code)
	o, err := s.orderRepo.GetOrderByCode(ctx, business.ID, code)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Str("order_code", code).Int64("business_id", business.ID).Msg("service: order not found by code")
			return nil, apperr.New(apperr.ErrOrderNotFound, "order %s not found", code)
		}
		log.Error().Err(err).Str("order_code", code).Msg("service: failed to fetch order by code in repository")
		return nil, fmt.Errorf("service: failed to fetch order by code: %w", err)
	}

	return o, nil
}

// priceCart loads every product and topping configuration the cart refers to
// in two queries, then validates and prices the lines in order.
func (s *service) priceCart(ctx context.Context, business *catalog.Business, items []CartLine) (*pricedCart, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.ErrInvalidQuantity, "order must contain at least one item")
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	var (
		products []catalog.Product
		groups   map[int64][]topping.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.catalog.GetProductsByIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.catalog.GetToppingGroupsByProductIDs(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int64("business_id", business.ID).Msg("service: failed to load cart catalog")
		return nil, fmt.Errorf("service: failed to load cart catalog: %w", err)
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		if p.BusinessID == business.ID {
			byID[p.ID] = p
		}
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, apperr.New(apperr.ErrProductNotFound, "product %d not found", id)
		}
		if !p.InStock {
			return nil, apperr.New(apperr.ErrOutOfStock, "product '%s' is out of stock", p.Name)
		}
	}

	cart := &pricedCart{
		lines:      make([]OrderLine, 0, len(items)),
		promoLines: make([]promotion.Line, 0, len(items)),
	}
	for _, item := range items {
		p := byID[item.ProductID]

		if item.Quantity <= 0 {
			return nil, apperr.New(apperr.ErrInvalidQuantity, "quantity for '%s' must be greater than zero", p.Name)
		}
		if item.Quantity > pricing.MaxQuantity {
			return nil, apperr.New(apperr.ErrInvalidQuantity,
				"quantity for '%s' cannot exceed %d", p.Name, pricing.MaxQuantity)
		}

		unitPrice, err := pricing.Resolve(p, item.Quantity, business.Kind)
		if err != nil {
			return nil, err
		}

		selected, surcharge, err := topping.Validate(groups[p.ID], item.ToppingIDs)
		if err != nil {
			return nil, err
		}

		subtotal, ok := pricing.LineSubtotal(unitPrice, surcharge, item.Quantity)
		if !ok || subtotal > math.MaxInt64-cart.subtotal {
			log.Warn().Int64("product_id", p.ID).Int("quantity", item.Quantity).Msg("service: cart amount out of range")
			return nil, apperr.New(apperr.ErrInvalidQuantity, "quantity for '%s' is too large", p.Name)
		}
		productID := p.ID
		cart.lines = append(cart.lines, OrderLine{
			ProductID:   &productID,
			ProductName: p.Name,
			UnitPrice:   unitPrice + surcharge,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
			Toppings:    selected,
		})
		cart.promoLines = append(cart.promoLines, promotion.Line{
			ProductID:  p.ID,
			CategoryID: p.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice + surcharge,
		})
		cart.subtotal += subtotal
	}

	return cart, nil
}

func (s *service) business(ctx context.Context, slug string) (*catalog.Business, error) {
	business, err := s.catalog.GetBusinessBySlug(ctx, slug)
	if err != nil {
		var ruleErr *apperr.Error
		if errors.As(err, &ruleErr) {
			log.Warn().Str("slug", slug).Msg("service: business not found by slug")
			return nil, err
		}
		log.Error().Err(err).Str("slug", slug).Msg("service: failed to look up business")
		return nil, fmt.Errorf("service: failed to look up business: %w", err)
	}
	return business, nil
}
