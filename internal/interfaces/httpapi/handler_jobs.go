package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

func (h *Handler) RunWaiversJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWaiversJob")
	defer span.End()

	if h.maintenanceService == nil {
		writeError(ctx, w, fmt.Errorf("%w: maintenance service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalWaiverJobRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueIDs := append([]string(nil), req.LeagueIDs...)
	if id := strings.TrimSpace(req.LeagueID); id != "" {
		leagueIDs = append(leagueIDs, id)
	}

	result, err := h.maintenanceService.RunWaivers(ctx, leagueIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "run waivers job failed", "league_ids", leagueIDs, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunReservationCleanupJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReservationCleanupJob")
	defer span.End()

	if h.maintenanceService == nil {
		writeError(ctx, w, fmt.Errorf("%w: maintenance service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.maintenanceService.RunReservationCleanup(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run reservation cleanup job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
