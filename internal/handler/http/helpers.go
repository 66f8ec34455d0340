package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/apperr"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError writes the customer-facing reason of a rule
// violation, or fallback for anything else.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)
	if reason, ok := apperr.Reason(err); ok {
		log.Warn().Err(err).Int("status", statusCode).Msg("Request rejected")
		respondWithError(w, statusCode, reason)
		return
	}
	log.Error().Err(err).Msg(fallback)
	respondWithError(w, statusCode, fallback)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrOrderingDisabled):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrCouponExhausted):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPaymentMethodNotAllowed),
		errors.Is(err, apperr.ErrDeliveryTypeNotAllowed),
		errors.Is(err, apperr.ErrOutOfStock),
		errors.Is(err, apperr.ErrInvalidQuantity),
		errors.Is(err, apperr.ErrBelowMinimumQuantity),
		errors.Is(err, apperr.ErrBelowMinimumOrder),
		errors.Is(err, apperr.ErrInvalidSelection),
		errors.Is(err, apperr.ErrCouponNotYetActive),
		errors.Is(err, apperr.ErrCouponExpired),
		errors.Is(err, apperr.ErrCouponMinimumNotMet):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "min":
			details[fe.Field()] = fmt.Sprintf("must have at least %s", fe.Param())
		case "max":
			details[fe.Field()] = fmt.Sprintf("must have at most %s", fe.Param())
		case "gt":
			details[fe.Field()] = fmt.Sprintf("must be greater than %s", fe.Param())
		default:
			details[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return details
}
