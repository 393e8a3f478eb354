package controllers

import (
	"net/http"

	"github.com/yourwae/fastget-backend/api/middleware"
	"github.com/yourwae/fastget-backend/api/responses"
	"github.com/yourwae/fastget-backend/api/validators"
	"github.com/yourwae/fastget-backend/internal/deliveries"
	"github.com/yourwae/fastget-backend/internal/payments"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

// PartnerDeliveries lists the caller's deliveries; ?active=false includes finished ones.
func PartnerDeliveries(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly := active == nil || *active
		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForPartner(r.Context(), middleware.PrincipalFromContext(r.Context()), activeOnly, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, len(list))
	}
}

// PartnerDeliveryStatus records a status change; delivered requires the customer's OTP.
func PartnerDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body deliveries.StatusUpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.UpdateStatus(r.Context(), middleware.PrincipalFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func AdminAssignDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body deliveries.AssignInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.Assign(r.Context(), middleware.PrincipalFromContext(r.Context()), id, body.PartnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// AdminRefundPayment refunds a completed payment; no amount means the full amount.
func AdminRefundPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body payments.RefundInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Refund(r.Context(), middleware.PrincipalFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
