package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fleetedge/engine"
)

func (h *Handlers) apiCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.engine.CreateBooking(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *Handlers) apiListBookings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.engine.DB().ListBookings(status, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, bookings)
}

func (h *Handlers) apiGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.DB().GetBookingByRef(chi.URLParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (h *Handlers) apiBookingHistory(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.DB().GetBookingByRef(chi.URLParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hist, err := h.engine.DB().ListBookingHistory(b.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, hist)
}

func (h *Handlers) apiUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var upd engine.BookingStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.engine.UpdateBookingStatus(r.Context(), chi.URLParam(r, "ref"), upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (h *Handlers) apiRateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.engine.RateBooking(r.Context(), chi.URLParam(r, "ref"), req.Rating, req.Feedback)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (h *Handlers) apiCancelBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.engine.CancelBooking(r.Context(), chi.URLParam(r, "ref"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}
