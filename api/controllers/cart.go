package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/api/responses"
	"github.com/harborline/stockroom-backend/api/validators"
	"github.com/harborline/stockroom-backend/internal/cart"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

type cartItemRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type upsertCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// The planner compares dates lexicographically, so the ISO format is
// enforced here at the boundary.
type setDatesRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

type combineRequest struct {
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=2"`
}

type confirmOverrideRequest struct {
	Confirmed bool `json:"confirmed"`
}

// CartFetch returns the account's active cart, or 404 when none exists.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.GetActiveCart(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartUpsert replaces the cart contents with the submitted lines.
func CartUpsert(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req upsertCartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cart.UpsertCartInput{}
		for _, item := range req.Items {
			input.Items = append(input.Items, cart.CartItemInput{SKU: item.SKU, Quantity: item.Quantity})
		}

		dto, err := svc.UpsertCart(r.Context(), accountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartStartEdit seeds a fresh cart from a submitted order so its shipments
// can be reworked.
func CartStartEdit(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		dto, err := svc.StartOrderEdit(r.Context(), accountID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ShipmentPlan recomputes and returns the cart's current shipment plan.
func ShipmentPlan(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.Plan(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// ShipmentSetDates records a date override for one shipment.
func ShipmentSetDates(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID := chi.URLParam(r, "shipmentId")
		var req setDatesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.SetShipmentDates(r.Context(), accountID, shipmentID, req.Start, req.End)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// ShipmentClearDates removes a shipment's date override.
func ShipmentClearDates(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.ClearShipmentDates(r.Context(), accountID, chi.URLParam(r, "shipmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// ShipmentsCombine merges the named shipments into one combined shipment.
func ShipmentsCombine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req combineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.CombineShipments(r.Context(), accountID, req.ShipmentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// ShipmentSplit dissolves a combined shipment back into its constituents.
func ShipmentSplit(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.SplitShipment(r.Context(), accountID, chi.URLParam(r, "combinedId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// OverrideConfirm toggles the buyer's acknowledgment of ship-window errors.
func OverrideConfirm(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmOverrideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.ConfirmOverride(r.Context(), accountID, req.Confirmed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}
