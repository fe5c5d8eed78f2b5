package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

func (h *Handler) SubmitWaiverClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitWaiverClaim")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req waiverClaimRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	claim, err := h.waiverService.SubmitClaim(ctx, usecase.SubmitClaimInput{
		LeagueID:     leagueID,
		UserID:       principal.UserID,
		PlayerID:     req.PlayerID,
		DropPlayerID: req.DropPlayerID,
		ProcessAt:    req.ProcessAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit waiver claim failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(claim))
}

func (h *Handler) ListWaiverClaims(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWaiverClaims")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	claims, err := h.waiverService.ListClaims(ctx, leagueID, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.WarnContext(ctx, "list waiver claims failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]claimDTO, 0, len(claims))
	for _, claim := range claims {
		items = append(items, claimToDTO(claim))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListWaiverPriorities(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWaiverPriorities")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	priorities, err := h.waiverService.ListPriorities(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list waiver priorities failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]priorityDTO, 0, len(priorities))
	for _, item := range priorities {
		items = append(items, priorityDTO{TeamID: item.TeamID, Priority: item.Priority})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
