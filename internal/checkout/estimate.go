package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/internal/deliveries"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// FeeEstimateInput asks for a delivery fee before anything is in the cart.
// Either a town or a store is required; coordinates refine distance mode.
type FeeEstimateInput struct {
	Town      string
	StoreID   *uuid.UUID
	Latitude  *float64
	Longitude *float64
}

type FeeEstimateDTO struct {
	Town             string          `json:"town"`
	StoreID          *uuid.UUID      `json:"store_id,omitempty"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	FeeModel         fees.Model      `json:"fee_model"`
	DistanceKm       float64         `json:"distance_km,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes"`
}

// EstimateFee prices delivery with the same rules as Quote.
func (s *service) EstimateFee(ctx context.Context, input FeeEstimateInput) (*FeeEstimateDTO, error) {
	dropoff := types.Address{City: input.Town}
	if input.Latitude != nil && input.Longitude != nil {
		dropoff.Latitude = *input.Latitude
		dropoff.Longitude = *input.Longitude
	}

	if input.StoreID == nil || *input.StoreID == uuid.Nil {
		if input.Town == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "town or store_id is required")
		}
		q := s.calc.Compute(fees.Input{Town: input.Town})
		return &FeeEstimateDTO{
			Town:             input.Town,
			DeliveryFee:      q.Fee,
			FeeModel:         q.Model,
			EstimatedMinutes: deliveries.EstimateMinutes(0),
		}, nil
	}

	store, townName, err := s.loadStore(ctx, *input.StoreID)
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	in := feeInput(store, townName, dropoff)
	q := s.calc.Compute(in)
	return &FeeEstimateDTO{
		Town:             in.Town,
		StoreID:          &store.ID,
		DeliveryFee:      q.Fee,
		FeeModel:         q.Model,
		DistanceKm:       q.DistanceKm,
		EstimatedMinutes: deliveries.EstimateMinutes(q.DistanceKm),
	}, nil
}
