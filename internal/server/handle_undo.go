package server

import (
	"errors"
	"net/http"

	"github.com/cardhall/seatscore/internal/seatscore"
	"github.com/cardhall/seatscore/internal/tracker"
)

type UndoResponse struct {
	Undone seatscore.Action `json:"undone"`
}

func handleUndo(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := tr.Undo(r.Context())
		if errors.Is(err, tracker.ErrNothingToUndo) {
			writeError(w, http.StatusConflict, "nothing to undo")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, UndoResponse{Undone: action})
	}
}
