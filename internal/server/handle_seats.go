package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardhall/seatscore/internal/tracker"
)

// Removing an absent seat or player is a no-op. Both handlers always
// answer 200.

func handleRemoveSeat(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seatID := chi.URLParam(r, "seatID")
		tr.RemoveSeat(r.Context(), seatID)
		writeJSON(w, http.StatusOK, map[string]string{"removed": seatID})
	}
}

func handleRemovePlayer(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seatID := chi.URLParam(r, "seatID")
		playerID := chi.URLParam(r, "playerID")
		tr.RemovePlayer(r.Context(), seatID, playerID)
		writeJSON(w, http.StatusOK, map[string]string{"seat": seatID, "removed": playerID})
	}
}
