package controllers

import (
	"net/http"

	"github.com/yourwae/fastget-backend/api/responses"
	"github.com/yourwae/fastget-backend/api/validators"
	"github.com/yourwae/fastget-backend/internal/checkout"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

// DeliveryFee answers GET /api/delivery/fee?town=|store_id=&lat=&lng=.
func DeliveryFee(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := checkout.FeeEstimateInput{Town: validators.SanitizeString(r.URL.Query().Get("town"), 64)}
		var err error
		if input.StoreID, err = validators.ParseQueryUUID(r, "store_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Latitude, err = validators.ParseQueryFloat(r, "lat"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Longitude, err = validators.ParseQueryFloat(r, "lng"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (input.Latitude == nil) != (input.Longitude == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be given together"))
			return
		}

		estimate, err := svc.EstimateFee(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}
