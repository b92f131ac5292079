package server

import (
	"errors"
	"net/http"

	"github.com/cardhall/seatscore/internal/remote"
)

type SyncResponse struct {
	Saved  bool `json:"saved,omitempty"`
	Loaded bool `json:"loaded,omitempty"`
}

func handleSyncSave(syncer *remote.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := syncer.Save(r.Context())
		switch {
		case errors.Is(err, remote.ErrSaveInFlight):
			writeError(w, http.StatusConflict, "a save is already in progress")
			return
		case err != nil:
			// Conflict and transport failure are indistinguishable here.
			writeError(w, http.StatusBadGateway, "save failed (conflict or transport failure)")
			return
		}
		writeJSON(w, http.StatusOK, SyncResponse{Saved: true})
	}
}

func handleSyncLoad(syncer *remote.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := syncer.Pull(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, "remote load failed")
			return
		}
		writeJSON(w, http.StatusOK, SyncResponse{Loaded: true})
	}
}
