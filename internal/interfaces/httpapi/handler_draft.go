package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

func (h *Handler) ReservePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReservePick")
	defer span.End()

	var req reserveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	if err := h.requireTeamOwner(ctx, leagueID, req.TeamID); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.draftService.Reserve(ctx, usecase.ReserveInput{
		LeagueID: leagueID,
		TeamID:   req.TeamID,
		PlayerID: req.PlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reserve pick failed", "league_id", leagueID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftResultToDTO(result))
}

func (h *Handler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReleaseReservation")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	playerID := strings.TrimSpace(r.PathValue("playerID"))
	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	if teamID == "" {
		principal, err := requirePrincipal(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		tm, err := h.leagueService.TeamForUser(ctx, leagueID, principal.UserID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		teamID = tm.ID
	} else if err := h.requireTeamOwner(ctx, leagueID, teamID); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.draftService.Release(ctx, usecase.ReleaseInput{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "release reservation failed", "league_id", leagueID, "team_id", teamID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftResultToDTO(result))
}

func (h *Handler) ConfirmPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmPick")
	defer span.End()

	var req confirmPickRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	if err := h.requireTeamOwner(ctx, leagueID, req.TeamID); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.draftService.Confirm(ctx, usecase.ConfirmInput{
		LeagueID:   leagueID,
		TeamID:     req.TeamID,
		PlayerID:   req.PlayerID,
		Round:      req.Round,
		PickNumber: req.PickNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "confirm pick failed", "league_id", leagueID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftResultToDTO(result))
}
