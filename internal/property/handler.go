// Package property serves the listing pages: the buy and rent catalogs, the
// property detail view, listing submission and the owner's listings.
package property

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/middleware"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// maxFormBytes bounds a submission; images may arrive inline as data URIs.
const maxFormBytes = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds listing HTTP handlers.
type Handler struct {
	listings *listing.Service
	log      *zap.Logger
}

func NewHandler(listings *listing.Service, log *zap.Logger) *Handler {
	return &Handler{listings: listings, log: log}
}

// Buy serves GET /api/buy.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.catalogPage(w, r, models.KindSale)
}

// Rent serves GET /api/rent.
func (h *Handler) Rent(w http.ResponseWriter, r *http.Request) {
	h.catalogPage(w, r, models.KindRental)
}

// CriteriaFromQuery reads the filter inputs of a listing page.
func CriteriaFromQuery(r *http.Request) catalog.Criteria {
	q := r.URL.Query()
	return catalog.Criteria{
		Query:        q.Get("q"),
		Bracket:      q.Get("price"),
		PropertyType: q.Get("type"),
		Location:     q.Get("location"),
		Sort:         q.Get("sort"),
	}
}

func (h *Handler) catalogPage(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	c := CriteriaFromQuery(r)
	if err := c.Validate(kind); err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	items, err := h.listings.Catalog(r.Context(), kind)
	if err != nil {
		h.log.Warn("catalog fetch failed", zap.String("kind", string(kind)), zap.Error(err))
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewCatalogPage(kind, items, c))
}

// Detail serves GET /api/property/{id}/{kind}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind, ok := models.ParseKind(chi.URLParam(r, "kind"))
	if !ok || id == "" {
		apperr.WriteJSON(w, apperr.New(apperr.NotFound, "property.Detail", "property not found"))
		return
	}

	if kind == models.KindRental {
		p, err := h.listings.GetRental(r.Context(), id)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NewRentalDetail(p))
		return
	}
	p, err := h.listings.GetSale(r.Context(), id)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSaleDetail(p))
}

// Sell serves POST /api/sell.
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var form listing.SaleForm
	if !decode(w, r, &form) {
		return
	}
	created, err := h.listings.SubmitSale(r.Context(), middleware.WhoFrom(r.Context()), form)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, NewSaleDetail(created))
}

// ListRental serves POST /api/rent/list.
func (h *Handler) ListRental(w http.ResponseWriter, r *http.Request) {
	var form listing.RentalForm
	if !decode(w, r, &form) {
		return
	}
	created, err := h.listings.SubmitRental(r.Context(), middleware.WhoFrom(r.Context()), form)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, NewRentalDetail(created))
}

// Mine serves GET /api/my-properties.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	owned, err := h.listings.Mine(r.Context(), middleware.WhoFrom(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewOwnedPage(owned))
}

// Delete serves DELETE /api/my-properties/{kind}/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		apperr.WriteJSON(w, &apperr.Error{Kind: apperr.Validation, Op: "property.Delete", Field: "kind", Message: "kind must be sale or rental"})
		return
	}
	err := h.listings.Delete(r.Context(), middleware.WhoFrom(r.Context()), kind, chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"error":"invalid request body","kind":"validation"}`, http.StatusBadRequest)
		return false
	}
	return true
}
