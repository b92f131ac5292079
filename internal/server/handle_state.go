package server

import (
	"net/http"

	"github.com/cardhall/seatscore/internal/tracker"
)

func handleState(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tr.View())
	}
}
