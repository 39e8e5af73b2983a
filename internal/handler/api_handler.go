package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"dance-storefront/internal/middleware"
	"dance-storefront/internal/model"
	"dance-storefront/internal/service"
	"dance-storefront/pkg/apierror"
)

const maxPreferenceBody = 4 << 10

type preferenceResponse struct {
	SessionID string `json:"session_id"`
}

// APIHandler is the JSON mirror of the session, catalog and checkout pages.
type APIHandler struct {
	catalog  *service.CatalogService
	checkout *service.CheckoutService
	metrics  *middleware.Metrics
}

func NewAPIHandler(catalog *service.CatalogService, checkout *service.CheckoutService, metrics *middleware.Metrics) *APIHandler {
	return &APIHandler{catalog: catalog, checkout: checkout, metrics: metrics}
}

func (h *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, middleware.SessionFromContext(r.Context()).View(), nil)
}

func (h *APIHandler) Classes(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	page := h.catalog.List(r.Context(), session, r.URL.Query().Get("nivel"))
	if page.Unavailable {
		writeError(w, apierror.New("BACKEND_UNAVAILABLE", "catalog is temporarily unavailable", "", http.StatusBadGateway))
		return
	}

	writeSuccess(w, http.StatusOK, page.Classes, &model.Meta{Total: len(page.Classes), Level: page.Level})
}

func (h *APIHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPreferenceBody)

	var payload model.PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest))
		return
	}

	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		writeError(w, apierror.New("BAD_REQUEST", "slug is required", "slug", http.StatusBadRequest))
		return
	}

	session := middleware.SessionFromContext(r.Context())
	checkoutView, err := h.checkout.CreatePreference(r.Context(), session, slug)
	h.metrics.Outcome("checkout_api", string(checkoutView.State))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, preferenceResponse{SessionID: checkoutView.PreferenceID}, nil)
}
