package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardhall/seatscore/internal/seatscore"
	"github.com/cardhall/seatscore/internal/tracker"
)

type RankingRequest struct {
	// Order lists the seat's players best to worst; index 0 is the winner.
	Order []string `json:"order"`
}

type RankingResponse struct {
	SeatID  string                 `json:"seatId"`
	Results []seatscore.RankResult `json:"results"`
}

func handleConfirmRanking(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seatID := chi.URLParam(r, "seatID")

		var req RankingRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Order) == 0 {
			writeError(w, http.StatusBadRequest, "order is required")
			return
		}

		results, err := tr.ConfirmRanking(r.Context(), seatID, req.Order)
		switch {
		case errors.Is(err, tracker.ErrUnknownSeat):
			writeError(w, http.StatusNotFound, "seat not found")
			return
		case errors.Is(err, tracker.ErrBadOrder):
			writeError(w, http.StatusConflict, "order must list exactly the seat's players")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, RankingResponse{SeatID: seatID, Results: results})
	}
}
