package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
)

type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusFailed  ResultStatus = "failed"
)

// MoveInput is one add, drop, or add+drop request from a team manager.
type MoveInput struct {
	LeagueID     string
	UserID       string
	DropPlayerID string
	AddPlayerID  string
	Source       string
}

// MoveResult is the structured outcome of ProcessMove. Rejections are results, not errors.
type MoveResult struct {
	Status          ResultStatus
	Reason          ownership.Reason
	Message         string
	TeamID          string
	AddedPlayerID   string
	DroppedPlayerID string
	NoOp            bool
	LedgerEntryID   string
}

func (r MoveResult) Succeeded() bool {
	return r.Status == ResultStatusSuccess
}

type MoveService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	unit       unitSupport
	logger     *logging.Logger
	now        func() time.Time
}

func NewMoveService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	transactor ownership.Transactor,
	notifier ownership.Notifier,
	idGen idgen.Generator,
	logger *logging.Logger,
) *MoveService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MoveService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		unit:       newUnitSupport(transactor, notifier, idGen, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessMove applies a drop and/or add for the caller's team as one all-or-nothing unit.
func (s *MoveService) ProcessMove(ctx context.Context, input MoveInput) (MoveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MoveService.ProcessMove")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.DropPlayerID = strings.TrimSpace(input.DropPlayerID)
	input.AddPlayerID = strings.TrimSpace(input.AddPlayerID)
	input.Source = strings.TrimSpace(input.Source)
	if input.Source == "" {
		input.Source = ownership.SourceManual
	}

	if input.LeagueID == "" {
		return MoveResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return MoveResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.AddPlayerID == "" && input.DropPlayerID == "" {
		return MoveResult{}, fmt.Errorf("%w: add or drop player id is required", ErrInvalidInput)
	}
	if input.AddPlayerID != "" && input.AddPlayerID == input.DropPlayerID {
		return MoveResult{}, fmt.Errorf("%w: cannot add and drop the same player", ErrInvalidInput)
	}

	lg, err := getLeague(ctx, s.leagueRepo, input.LeagueID)
	if err != nil {
		return MoveResult{}, err
	}

	failure := ownership.FailedEntry{
		LeagueID:        input.LeagueID,
		PlayerID:        input.AddPlayerID,
		DroppedPlayerID: input.DropPlayerID,
		Source:          input.Source,
	}
	if failure.PlayerID == "" {
		failure.PlayerID = input.DropPlayerID
	}

	tm, exists, err := s.teamRepo.GetByUser(ctx, input.LeagueID, input.UserID)
	if err != nil {
		return MoveResult{}, fmt.Errorf("get team by user: %w", err)
	}
	if !exists {
		return s.reject(ctx, failure, fmt.Errorf("user=%s: %w", input.UserID, ownership.ErrTeamNotFound))
	}
	failure.TeamID = tm.ID

	if input.AddPlayerID != "" {
		if err := ensurePlayerAvailable(ctx, s.playerRepo, input.LeagueID, input.AddPlayerID); err != nil {
			if !ownership.IsRejection(err) {
				return MoveResult{}, err
			}
			return s.reject(ctx, failure, err)
		}
	}

	started := time.Now()
	var applied moveEffect
	err = s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		effect, err := applyMove(ctx, tx, lg, tm.ID, input.AddPlayerID, input.DropPlayerID, s.now().UTC())
		if err != nil {
			return err
		}
		if effect.noOp() {
			applied = effect
			return nil
		}

		entry, err := s.unit.newLedgerEntry(ownership.LedgerEntry{
			LeagueID:        input.LeagueID,
			TeamID:          tm.ID,
			PlayerID:        effect.primaryPlayerID(),
			DroppedPlayerID: effect.droppedPlayerID,
			Action:          ownership.ActionFor(effect.addedPlayerID, effect.droppedPlayerID),
			Source:          input.Source,
		}, started, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.AppendLedger(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		effect.ledgerEntryID = entry.ID
		applied = effect
		return nil
	})
	if err != nil {
		if ownership.IsRejection(err) {
			return s.reject(ctx, failure, err)
		}
		failure.Reason = ownership.ReasonInternal
		failure.Detail = err.Error()
		failure.AttemptedAt = s.now().UTC()
		if recordErr := s.unit.recordFailure(ctx, failure); recordErr != nil {
			return MoveResult{}, errors.Join(fmt.Errorf("process move: %w", err), recordErr)
		}
		return MoveResult{}, fmt.Errorf("process move: %w", err)
	}

	result := MoveResult{
		Status:          ResultStatusSuccess,
		Reason:          ownership.ReasonNone,
		Message:         ownership.ReasonNone.Message(),
		TeamID:          tm.ID,
		AddedPlayerID:   applied.addedPlayerID,
		DroppedPlayerID: applied.droppedPlayerID,
		NoOp:            applied.noOp(),
		LedgerEntryID:   applied.ledgerEntryID,
	}
	if result.NoOp {
		result.Message = "roster already in the requested state"
		s.logger.InfoContext(ctx, "move is a no-op",
			"league_id", input.LeagueID,
			"team_id", tm.ID,
			"add_player_id", input.AddPlayerID,
			"drop_player_id", input.DropPlayerID,
		)
		return result, nil
	}

	s.unit.publish(ctx, ownership.ChangeEvent{
		LeagueID:        input.LeagueID,
		TeamID:          tm.ID,
		AddedPlayerID:   applied.addedPlayerID,
		DroppedPlayerID: applied.droppedPlayerID,
		Action:          ownership.ActionFor(applied.addedPlayerID, applied.droppedPlayerID),
		OccurredAt:      s.now().UTC(),
	})

	s.logger.InfoContext(ctx, "move processed",
		"league_id", input.LeagueID,
		"team_id", tm.ID,
		"added_player_id", applied.addedPlayerID,
		"dropped_player_id", applied.droppedPlayerID,
		"ledger_entry_id", applied.ledgerEntryID,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return result, nil
}

func (s *MoveService) reject(ctx context.Context, failure ownership.FailedEntry, cause error) (MoveResult, error) {
	reason := ownership.ReasonOf(cause)
	failure.Reason = reason
	failure.Detail = cause.Error()
	failure.AttemptedAt = s.now().UTC()
	if err := s.unit.recordFailure(ctx, failure); err != nil {
		return MoveResult{}, err
	}

	s.logger.InfoContext(ctx, "move rejected",
		"league_id", failure.LeagueID,
		"team_id", failure.TeamID,
		"player_id", failure.PlayerID,
		"dropped_player_id", failure.DroppedPlayerID,
		"reason", string(reason),
	)

	return MoveResult{
		Status:  ResultStatusFailed,
		Reason:  reason,
		Message: reason.Message(),
		TeamID:  failure.TeamID,
	}, nil
}

type moveEffect struct {
	addedPlayerID   string
	droppedPlayerID string
	ledgerEntryID   string
}

func (e moveEffect) noOp() bool {
	return e.addedPlayerID == "" && e.droppedPlayerID == ""
}

func (e moveEffect) primaryPlayerID() string {
	if e.addedPlayerID != "" {
		return e.addedPlayerID
	}
	return e.droppedPlayerID
}

// applyMove performs the drop then the add inside tx. Halves already in the requested state are skipped.
func applyMove(ctx context.Context, tx ownership.Tx, lg league.League, teamID, addPlayerID, dropPlayerID string, now time.Time) (moveEffect, error) {
	var effect moveEffect

	if err := tx.LockTeam(ctx, lg.ID, teamID); err != nil {
		return moveEffect{}, fmt.Errorf("lock team: %w", err)
	}

	if dropPlayerID != "" {
		dropped, err := dropOwned(ctx, tx, lg.ID, teamID, dropPlayerID, true)
		if err != nil {
			return moveEffect{}, err
		}
		if dropped {
			effect.droppedPlayerID = dropPlayerID
		}
	}

	if addPlayerID != "" {
		current, owned, err := tx.GetOwner(ctx, lg.ID, addPlayerID)
		if err != nil {
			return moveEffect{}, fmt.Errorf("get owner: %w", err)
		}
		switch {
		case owned && current.TeamID == teamID:
		case owned:
			return moveEffect{}, fmt.Errorf("player=%s owner=%s: %w", addPlayerID, current.TeamID, ownership.ErrAlreadyOwned)
		default:
			if err := insertWithinLimit(ctx, tx, lg, ownership.Record{
				LeagueID:    lg.ID,
				PlayerID:    addPlayerID,
				TeamID:      teamID,
				Acquisition: ownership.AcquisitionAdd,
				AssignedAt:  now,
			}); err != nil {
				return moveEffect{}, err
			}
			effect.addedPlayerID = addPlayerID
		}
	}

	return effect, nil
}

// dropOwned removes playerID from teamID. A player owned by nobody is already dropped when
// idempotent is set; a player owned by another team is always ErrNotOwned.
func dropOwned(ctx context.Context, tx ownership.Tx, leagueID, teamID, playerID string, idempotent bool) (bool, error) {
	current, owned, err := tx.GetOwner(ctx, leagueID, playerID)
	if err != nil {
		return false, fmt.Errorf("get owner: %w", err)
	}
	if !owned {
		if idempotent {
			return false, nil
		}
		return false, fmt.Errorf("player=%s team=%s: %w", playerID, teamID, ownership.ErrNotOwned)
	}
	if current.TeamID != teamID {
		return false, fmt.Errorf("player=%s team=%s: %w", playerID, teamID, ownership.ErrNotOwned)
	}

	deleted, err := tx.DeleteRecord(ctx, leagueID, teamID, playerID)
	if err != nil {
		return false, fmt.Errorf("delete ownership record: %w", err)
	}
	if !deleted {
		return false, fmt.Errorf("player=%s team=%s: %w", playerID, teamID, ownership.ErrNotOwned)
	}
	if err := tx.ClearLineupSlot(ctx, leagueID, teamID, playerID); err != nil {
		return false, fmt.Errorf("clear lineup slot: %w", err)
	}

	return true, nil
}

// insertWithinLimit re-counts the roster inside the unit before inserting, so the cap holds for swaps at max.
func insertWithinLimit(ctx context.Context, tx ownership.Tx, lg league.League, record ownership.Record) error {
	count, err := tx.CountRoster(ctx, lg.ID, record.TeamID)
	if err != nil {
		return fmt.Errorf("count roster: %w", err)
	}
	if count+1 > lg.RosterLimit() {
		return fmt.Errorf("team=%s size=%d max=%d: %w", record.TeamID, count, lg.RosterLimit(), ownership.ErrRosterFull)
	}
	if err := tx.InsertRecord(ctx, record); err != nil {
		return err
	}

	return nil
}
