package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/draft"
	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
)

type ReserveInput struct {
	LeagueID string
	TeamID   string
	PlayerID string
}

type ConfirmInput struct {
	LeagueID   string
	TeamID     string
	PlayerID   string
	Round      int
	PickNumber int
}

type ReleaseInput struct {
	LeagueID string
	TeamID   string
	PlayerID string
}

type DraftResult struct {
	Success       bool
	Reason        ownership.Reason
	Message       string
	ExpiresAt     time.Time
	NoOp          bool
	LedgerEntryID string
}

type DraftService struct {
	leagueRepo     league.Repository
	teamRepo       team.Repository
	playerRepo     player.Repository
	unit           unitSupport
	logger         *logging.Logger
	reservationTTL time.Duration
	now            func() time.Time
}

func NewDraftService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	transactor ownership.Transactor,
	notifier ownership.Notifier,
	idGen idgen.Generator,
	reservationTTL time.Duration,
	logger *logging.Logger,
) *DraftService {
	if logger == nil {
		logger = logging.Default()
	}
	if reservationTTL <= 0 {
		reservationTTL = draft.DefaultReservationTTL
	}

	return &DraftService{
		leagueRepo:     leagueRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		unit:           newUnitSupport(transactor, notifier, idGen, logger),
		logger:         logger,
		reservationTTL: reservationTTL,
		now:            time.Now,
	}
}

// Reserve places or refreshes a short hold on a player for the team on the clock.
func (s *DraftService) Reserve(ctx context.Context, input ReserveInput) (DraftResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Reserve")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if err := requireDraftIDs(input.LeagueID, input.TeamID, input.PlayerID); err != nil {
		return DraftResult{}, err
	}

	failure := ownership.FailedEntry{
		LeagueID: input.LeagueID,
		TeamID:   input.TeamID,
		PlayerID: input.PlayerID,
		Source:   ownership.SourceDraft,
	}
	if err := s.checkParticipants(ctx, input.LeagueID, input.TeamID, input.PlayerID); err != nil {
		if !ownership.IsRejection(err) {
			return DraftResult{}, err
		}
		return s.reject(ctx, failure, err)
	}

	now := s.now().UTC()
	reservation := draft.Reservation{
		LeagueID:   input.LeagueID,
		PlayerID:   input.PlayerID,
		TeamID:     input.TeamID,
		ReservedAt: now,
		ExpiresAt:  now.Add(s.reservationTTL),
	}

	err := s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		_, owned, err := tx.GetOwner(ctx, input.LeagueID, input.PlayerID)
		if err != nil {
			return fmt.Errorf("get owner: %w", err)
		}
		if owned {
			return fmt.Errorf("player=%s: %w", input.PlayerID, ownership.ErrAlreadyDrafted)
		}

		placed, err := tx.PutReservation(ctx, reservation, now)
		if err != nil {
			return fmt.Errorf("put reservation: %w", err)
		}
		if !placed {
			return fmt.Errorf("player=%s: %w", input.PlayerID, ownership.ErrReservedByOther)
		}
		return nil
	})
	if err != nil {
		return s.handleUnitError(ctx, failure, err, "reserve draft pick")
	}

	s.logger.InfoContext(ctx, "draft reservation placed",
		"league_id", input.LeagueID,
		"team_id", input.TeamID,
		"player_id", input.PlayerID,
		"expires_at", reservation.ExpiresAt,
	)

	return DraftResult{
		Success:   true,
		Reason:    ownership.ReasonNone,
		Message:   ownership.ReasonNone.Message(),
		ExpiresAt: reservation.ExpiresAt,
	}, nil
}

// Confirm turns a pick into an ownership record. A live reservation by the same team is not required.
func (s *DraftService) Confirm(ctx context.Context, input ConfirmInput) (DraftResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Confirm")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if err := requireDraftIDs(input.LeagueID, input.TeamID, input.PlayerID); err != nil {
		return DraftResult{}, err
	}
	if input.Round < 0 || input.PickNumber < 0 {
		return DraftResult{}, fmt.Errorf("%w: round and pick number must be >= 0", ErrInvalidInput)
	}

	lg, err := getLeague(ctx, s.leagueRepo, input.LeagueID)
	if err != nil {
		return DraftResult{}, err
	}

	failure := ownership.FailedEntry{
		LeagueID: input.LeagueID,
		TeamID:   input.TeamID,
		PlayerID: input.PlayerID,
		Source:   ownership.SourceDraft,
	}
	if err := s.checkParticipants(ctx, input.LeagueID, input.TeamID, input.PlayerID); err != nil {
		if !ownership.IsRejection(err) {
			return DraftResult{}, err
		}
		return s.reject(ctx, failure, err)
	}

	started := time.Now()
	var ledgerEntryID string
	err = s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		now := s.now().UTC()

		if err := tx.LockTeam(ctx, input.LeagueID, input.TeamID); err != nil {
			return fmt.Errorf("lock team: %w", err)
		}

		_, owned, err := tx.GetOwner(ctx, input.LeagueID, input.PlayerID)
		if err != nil {
			return fmt.Errorf("get owner: %w", err)
		}
		if owned {
			return fmt.Errorf("player=%s: %w", input.PlayerID, ownership.ErrAlreadyDrafted)
		}

		reservation, reserved, err := tx.GetReservation(ctx, input.LeagueID, input.PlayerID)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if reserved && reservation.HeldByOther(input.TeamID, now) {
			return fmt.Errorf("player=%s holder=%s: %w", input.PlayerID, reservation.TeamID, ownership.ErrReservedByOther)
		}

		record := ownership.Record{
			LeagueID:    input.LeagueID,
			PlayerID:    input.PlayerID,
			TeamID:      input.TeamID,
			Acquisition: ownership.AcquisitionDraft,
			AssignedAt:  now,
		}
		if input.Round > 0 {
			round := input.Round
			record.DraftRound = &round
		}
		if input.PickNumber > 0 {
			pick := input.PickNumber
			record.DraftPick = &pick
		}

		if err := insertWithinLimit(ctx, tx, lg, record); err != nil {
			if errors.Is(err, ownership.ErrAlreadyOwned) {
				return fmt.Errorf("player=%s: %w", input.PlayerID, ownership.ErrAlreadyDrafted)
			}
			return err
		}

		if _, err := tx.DeleteReservation(ctx, input.LeagueID, input.PlayerID, ""); err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}

		entry, err := s.unit.newLedgerEntry(ownership.LedgerEntry{
			LeagueID: input.LeagueID,
			TeamID:   input.TeamID,
			PlayerID: input.PlayerID,
			Action:   ownership.ActionDraft,
			Source:   ownership.SourceDraft,
		}, started, now)
		if err != nil {
			return err
		}
		if err := tx.AppendLedger(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		ledgerEntryID = entry.ID
		return nil
	})
	if err != nil {
		return s.handleUnitError(ctx, failure, err, "confirm draft pick")
	}

	s.unit.publish(ctx, ownership.ChangeEvent{
		LeagueID:      input.LeagueID,
		TeamID:        input.TeamID,
		AddedPlayerID: input.PlayerID,
		Action:        ownership.ActionDraft,
		OccurredAt:    s.now().UTC(),
	})

	s.logger.InfoContext(ctx, "draft pick confirmed",
		"league_id", input.LeagueID,
		"team_id", input.TeamID,
		"player_id", input.PlayerID,
		"round", input.Round,
		"pick", input.PickNumber,
		"ledger_entry_id", ledgerEntryID,
	)

	return DraftResult{
		Success:       true,
		Reason:        ownership.ReasonNone,
		Message:       ownership.ReasonNone.Message(),
		LedgerEntryID: ledgerEntryID,
	}, nil
}

// Release drops the team's own hold early. Releasing a hold that is gone is a no-op.
func (s *DraftService) Release(ctx context.Context, input ReleaseInput) (DraftResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Release")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if err := requireDraftIDs(input.LeagueID, input.TeamID, input.PlayerID); err != nil {
		return DraftResult{}, err
	}

	var released bool
	err := s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		deleted, err := tx.DeleteReservation(ctx, input.LeagueID, input.PlayerID, input.TeamID)
		if err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
		released = deleted
		return nil
	})
	if err != nil {
		return DraftResult{}, fmt.Errorf("release draft reservation: %w", err)
	}

	return DraftResult{
		Success: true,
		Reason:  ownership.ReasonNone,
		Message: ownership.ReasonNone.Message(),
		NoOp:    !released,
	}, nil
}

// CleanupExpiredReservations deletes every reservation whose expiry is at or before now.
func (s *DraftService) CleanupExpiredReservations(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.CleanupExpiredReservations")
	defer span.End()

	now := s.now().UTC()
	var removed int
	err := s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		count, err := tx.DeleteExpiredReservations(ctx, now)
		if err != nil {
			return fmt.Errorf("delete expired reservations: %w", err)
		}
		removed = count
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "expired draft reservations removed", "count", removed)
	}

	return removed, nil
}

func (s *DraftService) checkParticipants(ctx context.Context, leagueID, teamID, playerID string) error {
	if _, err := getLeague(ctx, s.leagueRepo, leagueID); err != nil {
		return err
	}

	_, exists, err := s.teamRepo.GetByID(ctx, leagueID, teamID)
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return fmt.Errorf("team=%s: %w", teamID, ownership.ErrTeamNotFound)
	}

	return ensurePlayerAvailable(ctx, s.playerRepo, leagueID, playerID)
}

func (s *DraftService) handleUnitError(ctx context.Context, failure ownership.FailedEntry, err error, op string) (DraftResult, error) {
	if ownership.IsRejection(err) {
		return s.reject(ctx, failure, err)
	}

	failure.Reason = ownership.ReasonInternal
	failure.Detail = err.Error()
	failure.AttemptedAt = s.now().UTC()
	if recordErr := s.unit.recordFailure(ctx, failure); recordErr != nil {
		return DraftResult{}, errors.Join(fmt.Errorf("%s: %w", op, err), recordErr)
	}
	return DraftResult{}, fmt.Errorf("%s: %w", op, err)
}

func (s *DraftService) reject(ctx context.Context, failure ownership.FailedEntry, cause error) (DraftResult, error) {
	reason := ownership.ReasonOf(cause)
	failure.Reason = reason
	failure.Detail = cause.Error()
	failure.AttemptedAt = s.now().UTC()
	if err := s.unit.recordFailure(ctx, failure); err != nil {
		return DraftResult{}, err
	}

	s.logger.InfoContext(ctx, "draft action rejected",
		"league_id", failure.LeagueID,
		"team_id", failure.TeamID,
		"player_id", failure.PlayerID,
		"reason", string(reason),
	)

	return DraftResult{
		Success: false,
		Reason:  reason,
		Message: reason.Message(),
	}, nil
}

func requireDraftIDs(leagueID, teamID, playerID string) error {
	switch {
	case leagueID == "":
		return fmt.Errorf("%w: league id is required", ErrInvalidInput)
	case teamID == "":
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	case playerID == "":
		return fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	return nil
}
