package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

func (h *Handler) GetFreeAgents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFreeAgents")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	players, err := h.rosterService.GetFreeAgents(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get free agents failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoster")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	teamID := r.PathValue("teamID")
	entries, err := h.rosterService.GetRoster(ctx, leagueID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get roster failed", "league_id", leagueID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rosterEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, rosterEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ProcessMove(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProcessMove")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	result, err := h.moveService.ProcessMove(ctx, usecase.MoveInput{
		LeagueID:     leagueID,
		UserID:       principal.UserID,
		AddPlayerID:  req.AddPlayerID,
		DropPlayerID: req.DropPlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "process move failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, moveResultToDTO(result))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTransactions")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	limit, err := parseLimit(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.rosterService.ListLedger(ctx, leagueID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list transactions failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]ledgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ledgerEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListFailedTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFailedTransactions")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	limit, err := parseLimit(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.rosterService.ListFailures(ctx, leagueID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list failed transactions failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]failedEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, failedEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
