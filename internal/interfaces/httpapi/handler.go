package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-roster/internal/domain/user"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

type Handler struct {
	leagueService      *usecase.LeagueService
	rosterService      *usecase.RosterService
	moveService        *usecase.MoveService
	draftService       *usecase.DraftService
	waiverService      *usecase.WaiverService
	maintenanceService *usecase.MaintenanceService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	rosterService *usecase.RosterService,
	moveService *usecase.MoveService,
	draftService *usecase.DraftService,
	waiverService *usecase.WaiverService,
	maintenanceService *usecase.MaintenanceService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:      leagueService,
		rosterService:      rosterService,
		moveService:        moveService,
		draftService:       draftService,
		waiverService:      waiverService,
		maintenanceService: maintenanceService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON rejects unknown fields. An empty body is an error unless allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// requireTeamOwner checks that the caller manages teamID in leagueID.
func (h *Handler) requireTeamOwner(ctx context.Context, leagueID, teamID string) error {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}

	tm, err := h.leagueService.TeamForUser(ctx, leagueID, principal.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return fmt.Errorf("%w: user=%s has no team in league=%s", usecase.ErrUnauthorized, principal.UserID, leagueID)
		}
		return err
	}
	if tm.ID != strings.TrimSpace(teamID) {
		return fmt.Errorf("%w: team=%s is not managed by user=%s", usecase.ErrUnauthorized, teamID, principal.UserID)
	}

	return nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}
