package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/arena/matchmaking"
	"github.com/Dosada05/arena/services"
	"github.com/go-chi/chi/v5"
)

// MatchHandler accepts game results from the simulation backend and feeds
// them into the matchmaking core.
type MatchHandler struct {
	matchmaker *services.Matchmaker
	games      matchmaking.GameStore
	logger     *slog.Logger
}

func NewMatchHandler(matchmaker *services.Matchmaker, games matchmaking.GameStore, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matchmaker: matchmaker, games: games, logger: logger}
}

type gameResultRequest struct {
	WinnerID string `json:"winner_id"`
}

// ReportResult records a finished game and fans the result out to every
// engine. Duplicate reports settle to the same state and succeed.
func (h *MatchHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		errorResponse(w, h.logger, http.StatusBadRequest, "missing gameID")
		return
	}

	var req gameResultRequest
	if err := readJSON(w, r, &req); err != nil {
		errorResponse(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if req.WinnerID == "" {
		errorResponse(w, h.logger, http.StatusBadRequest, "missing winner_id")
		return
	}

	if err := h.games.RecordResult(r.Context(), gameID, req.WinnerID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := h.matchmaker.HandleGameResult(r.Context(), gameID, req.WinnerID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"status": "recorded"})
}

// Healthz is the liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"})
}
