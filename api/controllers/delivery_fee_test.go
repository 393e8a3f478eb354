package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/internal/checkout"
	"github.com/yourwae/fastget-backend/pkg/fees"
)

type stubFeeEstimator struct {
	checkout.Service
	estimate *checkout.FeeEstimateDTO
	err      error
	got      *checkout.FeeEstimateInput
}

func (s *stubFeeEstimator) EstimateFee(ctx context.Context, input checkout.FeeEstimateInput) (*checkout.FeeEstimateDTO, error) {
	s.got = &input
	return s.estimate, s.err
}

func TestDeliveryFeeForwardsQuery(t *testing.T) {
	storeID := uuid.New()
	stub := &stubFeeEstimator{estimate: &checkout.FeeEstimateDTO{
		Town:             "Hohoe",
		StoreID:          &storeID,
		DeliveryFee:      decimal.NewFromInt(9),
		FeeModel:         fees.ModelDistance,
		DistanceKm:       3,
		EstimatedMinutes: 27,
	}}
	handler := DeliveryFee(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/delivery/fee?town=Hohoe&store_id="+storeID.String()+"&lat=6.6&lng=0.47", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.got == nil || stub.got.Town != "Hohoe" {
		t.Fatalf("unexpected input: %+v", stub.got)
	}
	if stub.got.StoreID == nil || *stub.got.StoreID != storeID {
		t.Fatal("store id not forwarded")
	}
	if stub.got.Latitude == nil || *stub.got.Latitude != 6.6 || stub.got.Longitude == nil || *stub.got.Longitude != 0.47 {
		t.Fatal("coordinates not forwarded")
	}

	var envelope struct {
		Data checkout.FeeEstimateDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.DeliveryFee.Equal(decimal.NewFromInt(9)) || envelope.Data.EstimatedMinutes != 27 {
		t.Fatalf("unexpected estimate: %+v", envelope.Data)
	}
}

func TestDeliveryFeeRequiresCoordinatePairs(t *testing.T) {
	stub := &stubFeeEstimator{}
	handler := DeliveryFee(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/delivery/fee?town=Ve&lat=6.6", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if stub.got != nil {
		t.Fatal("service must not be called for half a coordinate")
	}
}

func TestDeliveryFeeRejectsBadStoreID(t *testing.T) {
	stub := &stubFeeEstimator{}
	handler := DeliveryFee(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/delivery/fee?store_id=abc", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
