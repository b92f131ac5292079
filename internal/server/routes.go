package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/cardhall/seatscore/internal/remote"
	"github.com/cardhall/seatscore/internal/tracker"
)

func addRoutes(r chi.Router, logger *slog.Logger, tr *tracker.Tracker, syncer *remote.Syncer, broker *Broker, db *sql.DB, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("SeatScore API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", handleScan(tr))
		r.Get("/state", handleState(tr))
		r.Post("/undo", handleUndo(tr))

		r.Delete("/seats/{seatID}", handleRemoveSeat(tr))
		r.Delete("/seats/{seatID}/players/{playerID}", handleRemovePlayer(tr))
		r.Post("/seats/{seatID}/ranking", handleConfirmRanking(tr))

		r.Post("/sync/save", handleSyncSave(syncer))
		r.Post("/sync/load", handleSyncLoad(syncer))

		r.Get("/events", handleEvents(broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
