package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/stockroom-backend/api/responses"
	"github.com/harborline/stockroom-backend/api/validators"
	"github.com/harborline/stockroom-backend/internal/catalog"
	"github.com/harborline/stockroom-backend/pkg/logger"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

// SKUList pages through the catalog ordered by SKU.
func SKUList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skus, err := svc.ListSKUs(r.Context(), limit, r.URL.Query().Get("after"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"skus": skus})
	}
}

// SKUDetail returns one SKU with its collection and ship window.
func SKUDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dto, err := svc.GetSKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CollectionList returns every collection with its ship window bounds.
func CollectionList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collections, err := svc.ListCollections(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"collections": collections})
	}
}
