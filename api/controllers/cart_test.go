package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/api/middleware"
	"github.com/harborline/stockroom-backend/internal/cart"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
)

type stubCartService struct {
	cart       *cart.CartDTO
	plan       *cart.PlanDTO
	err        error
	lastInput  cart.UpsertCartInput
	lastStart  string
	lastEnd    string
	lastIDs    []string
	lastToggle bool
}

func (s *stubCartService) UpsertCart(_ context.Context, _ uuid.UUID, input cart.UpsertCartInput) (*cart.CartDTO, error) {
	s.lastInput = input
	return s.cart, s.err
}

func (s *stubCartService) GetActiveCart(_ context.Context, _ uuid.UUID) (*cart.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) StartOrderEdit(_ context.Context, _, _ uuid.UUID) (*cart.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) Plan(_ context.Context, _ uuid.UUID) (*cart.PlanDTO, error) {
	return s.plan, s.err
}

func (s *stubCartService) PlanForOrder(_ context.Context, _ uuid.UUID) (*cart.SubmitPlan, error) {
	return nil, s.err
}

func (s *stubCartService) SetShipmentDates(_ context.Context, _ uuid.UUID, _, start, end string) (*cart.PlanDTO, error) {
	s.lastStart, s.lastEnd = start, end
	return s.plan, s.err
}

func (s *stubCartService) ClearShipmentDates(_ context.Context, _ uuid.UUID, _ string) (*cart.PlanDTO, error) {
	return s.plan, s.err
}

func (s *stubCartService) CombineShipments(_ context.Context, _ uuid.UUID, ids []string) (*cart.PlanDTO, error) {
	s.lastIDs = ids
	return s.plan, s.err
}

func (s *stubCartService) SplitShipment(_ context.Context, _ uuid.UUID, _ string) (*cart.PlanDTO, error) {
	return s.plan, s.err
}

func (s *stubCartService) ConfirmOverride(_ context.Context, _ uuid.UUID, confirmed bool) (*cart.PlanDTO, error) {
	s.lastToggle = confirmed
	return s.plan, s.err
}

func (s *stubCartService) MarkConverted(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func withAccount(req *http.Request) *http.Request {
	ctx := middleware.WithAccountID(req.Context(), uuid.NewString())
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	return req.WithContext(ctx)
}

func TestCartFetchReturnsCart(t *testing.T) {
	svc := &stubCartService{cart: &cart.CartDTO{ID: uuid.New()}}
	req := withAccount(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	resp := httptest.NewRecorder()

	CartFetch(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartFetchRequiresAccount(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()

	CartFetch(svc, nil)(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCartUpsertDecodesItems(t *testing.T) {
	svc := &stubCartService{cart: &cart.CartDTO{}}
	body := `{"items":[{"sku":"TEE-001","quantity":2},{"sku":"HAT-002","quantity":1}]}`
	req := withAccount(httptest.NewRequest(http.MethodPut, "/api/v1/cart", strings.NewReader(body)))
	resp := httptest.NewRecorder()

	CartUpsert(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.lastInput.Items) != 2 || svc.lastInput.Items[0].SKU != "TEE-001" {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestCartUpsertRejectsEmptyItems(t *testing.T) {
	svc := &stubCartService{}
	req := withAccount(httptest.NewRequest(http.MethodPut, "/api/v1/cart", strings.NewReader(`{"items":[]}`)))
	resp := httptest.NewRecorder()

	CartUpsert(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpsertRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	body := `{"items":[{"sku":"TEE-001","quantity":0}]}`
	req := withAccount(httptest.NewRequest(http.MethodPut, "/api/v1/cart", strings.NewReader(body)))
	resp := httptest.NewRecorder()

	CartUpsert(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestShipmentSetDatesPassesBounds(t *testing.T) {
	svc := &stubCartService{plan: &cart.PlanDTO{}}
	body := `{"start":"2025-06-05","end":"2025-06-20"}`
	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/v1/cart/shipments/shipment-7/dates", strings.NewReader(body)))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("shipmentId", "shipment-7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	resp := httptest.NewRecorder()

	ShipmentSetDates(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastStart != "2025-06-05" || svc.lastEnd != "2025-06-20" {
		t.Fatalf("bounds not forwarded: %q %q", svc.lastStart, svc.lastEnd)
	}
}

func TestShipmentSetDatesRejectsNonISODates(t *testing.T) {
	for _, body := range []string{
		`{"start":"06/15/2025","end":"2025-07-01"}`,
		`{"start":"2025-06-15","end":"20250701"}`,
		`{"start":"","end":"2025-07-01"}`,
		`{"start":"garbage","end":"garbage"}`,
	} {
		svc := &stubCartService{plan: &cart.PlanDTO{}}
		req := withAccount(httptest.NewRequest(http.MethodPost, "/api/v1/cart/shipments/shipment-7/dates", strings.NewReader(body)))
		rc := chi.NewRouteContext()
		rc.URLParams.Add("shipmentId", "shipment-7")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
		resp := httptest.NewRecorder()

		ShipmentSetDates(svc, nil)(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
		if svc.lastStart != "" || svc.lastEnd != "" {
			t.Fatalf("body %s: malformed dates reached the service: %q %q", body, svc.lastStart, svc.lastEnd)
		}
	}
}

func TestShipmentsCombineRejectsSingleID(t *testing.T) {
	svc := &stubCartService{plan: &cart.PlanDTO{}}
	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/v1/cart/shipments/combine", strings.NewReader(`{"shipment_ids":["shipment-7"]}`)))
	resp := httptest.NewRecorder()

	ShipmentsCombine(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestShipmentsCombineSurfacesStateConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "ship windows do not overlap")}
	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/v1/cart/shipments/combine", strings.NewReader(`{"shipment_ids":["shipment-7","shipment-9"]}`)))
	resp := httptest.NewRecorder()

	ShipmentsCombine(svc, nil)(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
}

func TestOverrideConfirmForwardsFlag(t *testing.T) {
	svc := &stubCartService{plan: &cart.PlanDTO{}}
	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/v1/cart/override", strings.NewReader(`{"confirmed":true}`)))
	resp := httptest.NewRecorder()

	OverrideConfirm(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.lastToggle {
		t.Fatal("expected confirmed flag forwarded")
	}
}
