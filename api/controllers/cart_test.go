package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/api/middleware"
	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/cart"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

type stubCart struct {
	cart.Service
	result   *cart.CartDTO
	err      error
	added    *cart.AddItemInput
	qty      int
	lineID   uuid.UUID
	listedBy authz.Principal
}

func (s *stubCart) List(ctx context.Context, p authz.Principal) (*cart.CartDTO, error) {
	s.listedBy = p
	return s.result, s.err
}

func (s *stubCart) Add(ctx context.Context, p authz.Principal, input cart.AddItemInput) (*cart.CartDTO, error) {
	s.added = &input
	return s.result, s.err
}

func (s *stubCart) UpdateQuantity(ctx context.Context, p authz.Principal, lineID uuid.UUID, qty int) (*cart.CartDTO, error) {
	s.lineID = lineID
	s.qty = qty
	return s.result, s.err
}

func TestCartFetchUsesCaller(t *testing.T) {
	userID := uuid.New()
	stub := &stubCart{result: &cart.CartDTO{ItemCount: 3, Subtotal: decimal.NewFromInt(42)}}
	handler := CartFetch(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), userID, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.listedBy.UserID != userID {
		t.Fatalf("expected caller %s got %s", userID, stub.listedBy.UserID)
	}
	var envelope struct {
		Data cart.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCount != 3 || !envelope.Data.Subtotal.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("unexpected cart: %+v", envelope.Data)
	}
}

func TestCartAddItemCreated(t *testing.T) {
	productID := uuid.New()
	stub := &stubCart{result: &cart.CartDTO{ItemCount: 2}}
	handler := CartAddItem(stub, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":2,"selected_variations":{"Size":"M"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), uuid.New(), enums.RoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if stub.added == nil || stub.added.ProductID != productID || stub.added.Quantity != 2 {
		t.Fatalf("unexpected input: %+v", stub.added)
	}
	if stub.added.SelectedVariations["Size"] != "M" {
		t.Fatalf("variations not forwarded: %v", stub.added.SelectedVariations)
	}
}

func TestCartAddItemValidatesQuantity(t *testing.T) {
	stub := &stubCart{}
	handler := CartAddItem(stub, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if stub.added != nil {
		t.Fatal("service must not be called for an invalid quantity")
	}
}

func TestCartUpdateItemForwardsZeroQuantity(t *testing.T) {
	lineID := uuid.New()
	stub := &stubCart{result: &cart.CartDTO{}}
	handler := CartUpdateItem(stub, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/cart/items/"+lineID.String(), strings.NewReader(`{"quantity":0}`))
	req = withRouteParam(req, "itemId", lineID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.lineID != lineID || stub.qty != 0 {
		t.Fatalf("unexpected update: line=%s qty=%d", stub.lineID, stub.qty)
	}
}

func TestCartUpdateItemNotFound(t *testing.T) {
	lineID := uuid.New()
	handler := CartUpdateItem(&stubCart{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/cart/items/"+lineID.String(), strings.NewReader(`{"quantity":4}`))
	req = withRouteParam(req, "itemId", lineID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
