package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/catalog"
	"github.com/pedilo/storefront/internal/order"
	"github.com/pedilo/storefront/internal/promotion"
)

type CartItemRequest struct {
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	Quantity   int     `json:"quantity"`
	ToppingIDs []int64 `json:"topping_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type CreateOrderRequest struct {
	PaymentMethod   string            `json:"payment_method" validate:"required,max=40"`
	DeliveryType    string            `json:"delivery_type" validate:"required,max=40"`
	CustomerName    string            `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerPhone   string            `json:"customer_phone,omitempty" validate:"omitempty,max=40"`
	DeliveryAddress string            `json:"delivery_address,omitempty" validate:"omitempty,max=255"`
	Notes           string            `json:"notes,omitempty" validate:"omitempty,max=500"`
	CouponCode      string            `json:"coupon_code,omitempty" validate:"omitempty,max=50"`
	Items           []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ValidateCouponRequest struct {
	Code  string            `json:"code" validate:"required,max=50"`
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CouponCheckResponse struct {
	Valid        bool           `json:"valid"`
	Code         string         `json:"code"`
	PromotionID  int64          `json:"promotion_id"`
	Kind         promotion.Kind `json:"kind"`
	Subtotal     int64          `json:"subtotal"`
	Discount     int64          `json:"discount"`
	Total        int64          `json:"total"`
	FreeShipping bool           `json:"free_shipping"`
}

type OrderHandler struct {
	orders   order.Service
	catalog  catalog.Service
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, catalogSvc catalog.Service) *OrderHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &OrderHandler{
		orders:   orders,
		catalog:  catalogSvc,
		validate: validate,
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/public/{slug}", func(r chi.Router) {
		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/{code}", h.handleGetOrderByCode)
		r.Post("/validate-coupon", h.handleValidateCoupon)
		r.Get("/products/{productID}/toppings", h.handleGetProductToppings)
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	created, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		Slug:            chi.URLParam(r, "slug"),
		PaymentMethod:   requestPayload.PaymentMethod,
		DeliveryType:    requestPayload.DeliveryType,
		CustomerName:    requestPayload.CustomerName,
		CustomerPhone:   requestPayload.CustomerPhone,
		DeliveryAddress: requestPayload.DeliveryAddress,
		Notes:           requestPayload.Notes,
		CouponCode:      requestPayload.CouponCode,
		Items:           toCartLines(requestPayload.Items),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleGetOrderByCode(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	code := chi.URLParam(r, "code")

	found, err := h.orders.GetOrderByCode(r.Context(), slug, code)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var requestPayload ValidateCouponRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	check, err := h.orders.CheckCoupon(r.Context(), order.CouponCheckRequest{
		Slug:  chi.URLParam(r, "slug"),
		Code:  requestPayload.Code,
		Items: toCartLines(requestPayload.Items),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to validate coupon")
		return
	}

	respondWithJSON(w, http.StatusOK, CouponCheckResponse{
		Valid:        true,
		Code:         check.Code,
		PromotionID:  check.PromotionID,
		Kind:         check.Kind,
		Subtotal:     check.Subtotal,
		Discount:     check.Discount,
		Total:        check.Total,
		FreeShipping: check.FreeShipping,
	})
}

func (h *OrderHandler) handleGetProductToppings(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "productID")
	productID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || productID <= 0 {
		log.Warn().Str("product_id", idParam).Msg("Failed to parse product id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid product id parameter")
		return
	}

	groups, err := h.catalog.ProductToppings(r.Context(), chi.URLParam(r, "slug"), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product toppings")
		return
	}

	respondWithJSON(w, http.StatusOK, groups)
}

// decodeAndValidate reads a JSON body into dst and runs the struct
// validation. It writes the error response itself and reports whether the
// handler should go on.
func (h *OrderHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	err := h.validate.Struct(dst)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
	} else {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	}
	return false
}

func toCartLines(items []CartItemRequest) []order.CartLine {
	lines := make([]order.CartLine, len(items))
	for i, item := range items {
		lines[i] = order.CartLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			ToppingIDs: item.ToppingIDs,
		}
	}
	return lines
}
