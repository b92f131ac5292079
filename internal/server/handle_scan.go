package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cardhall/seatscore/internal/tracker"
)

type ScanRequest struct {
	Text string `json:"text"`
}

// ScanResponse echoes how the token was handled so the UI can show the
// right notice.
type ScanResponse struct {
	Kind     string `json:"kind"`
	SeatID   string `json:"seatId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

func handleScan(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		res, err := tr.Scan(r.Context(), req.Text)
		switch {
		case errors.Is(err, tracker.ErrBadToken):
			writeError(w, http.StatusUnprocessableEntity, "only seat or player tokens are valid")
			return
		case errors.Is(err, tracker.ErrNoActiveSeat):
			writeError(w, http.StatusConflict, "scan a seat token first")
			return
		case errors.Is(err, tracker.ErrDuplicatePlayer):
			writeError(w, http.StatusConflict, "player is already registered at this seat")
			return
		case errors.Is(err, tracker.ErrSeatFull):
			writeError(w, http.StatusConflict, "this seat already holds 6 players")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, ScanResponse{
			Kind:     res.Kind,
			SeatID:   res.SeatID,
			PlayerID: res.PlayerID,
		})
	}
}
