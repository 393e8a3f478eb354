package controllers

import (
	"net/http"

	"github.com/yourwae/fastget-backend/api/middleware"
	"github.com/yourwae/fastget-backend/api/responses"
	"github.com/yourwae/fastget-backend/api/validators"
	"github.com/yourwae/fastget-backend/internal/checkout"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

// CheckoutQuote prices the cart without writing anything.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkout.QuoteInput
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), middleware.PrincipalFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutPlace turns the cart into an order and records its payment.
func CheckoutPlace(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkout.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.PlaceOrder(r.Context(), middleware.PrincipalFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result != nil && result.Order != nil && logg != nil {
			logg.Info(logg.WithOrderID(r.Context(), result.Order.ID.String()), "checkout.order_placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
