// Package handler exposes the offer service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/domain/offer"
)

// Handler routes HTTP requests to the offer service.
type Handler struct {
	offers *offer.Service
}

// New constructs a Handler over the given offer service.
func New(offers *offer.Service) *Handler {
	return &Handler{offers: offers}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Root)
	r.Post("/offer", h.CreateOffers)
	r.Get("/highest-discount", h.HighestDiscount)
	r.Get("/offers", h.ListOffers)
	r.Delete("/offers", h.DeleteOffers)
	return r
}

// errorResponse is the error body shape for every endpoint.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already written; nothing to do if the client went away.
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}
