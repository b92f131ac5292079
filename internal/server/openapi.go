package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/cardhall/seatscore/internal/tracker"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps dependency names to their check status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "SeatScore API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the SeatScore tournament tracker.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/scan
	postScan, _ := r.NewOperationContext(http.MethodPost, "/api/scan")
	postScan.SetSummary("Scan a token")
	postScan.SetDescription("Submit scanned text. Seat tokens open a seat; player tokens add the player to the active seat.")
	postScan.AddReqStructure(ScanRequest{})
	postScan.AddRespStructure(ScanResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postScan.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postScan.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postScan)

	// GET /api/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/state")
	getState.SetSummary("Get current state")
	getState.SetDescription("Returns all seats, player records, the active seat, and the undo depth.")
	getState.AddRespStructure(tracker.View{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getState)

	// POST /api/undo
	postUndo, _ := r.NewOperationContext(http.MethodPost, "/api/undo")
	postUndo.SetSummary("Undo last change")
	postUndo.SetDescription("Reverts the most recent add or removal and returns the reverted action.")
	postUndo.AddRespStructure(UndoResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postUndo.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postUndo)

	// DELETE /api/seats/{seatID}
	deleteSeat, _ := r.NewOperationContext(http.MethodDelete, "/api/seats/{seatID}")
	deleteSeat.SetSummary("Remove seat")
	deleteSeat.SetDescription("Removes a seat and its seating order. Removing a missing seat is a no-op.")
	deleteSeat.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(deleteSeat)

	// DELETE /api/seats/{seatID}/players/{playerID}
	deletePlayer, _ := r.NewOperationContext(http.MethodDelete, "/api/seats/{seatID}/players/{playerID}")
	deletePlayer.SetSummary("Remove player from seat")
	deletePlayer.SetDescription("Removes a player from a seat's order. The player's record survives.")
	deletePlayer.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(deletePlayer)

	// POST /api/seats/{seatID}/ranking
	postRanking, _ := r.NewOperationContext(http.MethodPost, "/api/seats/{seatID}/ranking")
	postRanking.SetSummary("Confirm ranking")
	postRanking.SetDescription("Applies rating changes for a finished round. Order must be a permutation of the seat's players.")
	postRanking.AddReqStructure(RankingRequest{})
	postRanking.AddRespStructure(RankingResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRanking.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postRanking.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRanking)

	// POST /api/sync/save
	postSave, _ := r.NewOperationContext(http.MethodPost, "/api/sync/save")
	postSave.SetSummary("Save to remote")
	postSave.SetDescription("Pushes the current state to the remote endpoint, tagged with the latest remote revision.")
	postSave.AddRespStructure(SyncResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postSave)

	// POST /api/sync/load
	postLoad, _ := r.NewOperationContext(http.MethodPost, "/api/sync/load")
	postLoad.SetSummary("Load from remote")
	postLoad.SetDescription("Replaces local seats and player records with the remote state.")
	postLoad.AddRespStructure(SyncResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLoad.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postLoad)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of state change notifications.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
