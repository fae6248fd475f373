package handlers

import (
	"net/http"

	"github.com/avvvet/pickup-services/internal/gamesvc/models"
)

func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.venues.List(r.Context())
	if err != nil {
		h.fail(w, "Handler.ListVenues", err)
		return
	}
	h.ok(w, "venues", venues)
}

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var v models.Venue
	if err := decodeJSON(r, &v, false); err != nil {
		h.fail(w, "Handler.CreateVenue", err)
		return
	}

	venue, err := h.venues.Create(r.Context(), &v)
	if err != nil {
		h.fail(w, "Handler.CreateVenue", err)
		return
	}
	h.CreateResponse(w, Response{Message: "venue created", Code: http.StatusCreated, Data: venue})
}
