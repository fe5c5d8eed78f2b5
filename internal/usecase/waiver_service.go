package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
)

const defaultWaiverLockTTL = 2 * time.Minute

type WaiverConfig struct {
	LockTTL    time.Duration
	BatchSize  int
	ClaimDelay time.Duration
}

type WaiverBatchResult struct {
	LeagueID string
	Outcomes []waiver.Outcome
}

func (r WaiverBatchResult) Counts() (processed, failed int) {
	for _, item := range r.Outcomes {
		switch item.Status {
		case waiver.StatusProcessed:
			processed++
		case waiver.StatusFailed:
			failed++
		}
	}
	return processed, failed
}

type SubmitClaimInput struct {
	LeagueID     string
	UserID       string
	PlayerID     string
	DropPlayerID string
	ProcessAt    *time.Time
}

type WaiverService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	waiverRepo waiver.Repository
	locker     waiver.Locker
	unit       unitSupport
	cfg        WaiverConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewWaiverService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	waiverRepo waiver.Repository,
	locker waiver.Locker,
	transactor ownership.Transactor,
	notifier ownership.Notifier,
	idGen idgen.Generator,
	cfg WaiverConfig,
	logger *logging.Logger,
) *WaiverService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultWaiverLockTTL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = waiver.DefaultBatchSize
	}
	if cfg.ClaimDelay < 0 {
		cfg.ClaimDelay = 0
	}

	return &WaiverService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		waiverRepo: waiverRepo,
		locker:     locker,
		unit:       newUnitSupport(transactor, notifier, idGen, logger),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitClaim queues a claim for the caller's team, snapshotting its current waiver priority.
func (s *WaiverService) SubmitClaim(ctx context.Context, input SubmitClaimInput) (waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.SubmitClaim")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.DropPlayerID = strings.TrimSpace(input.DropPlayerID)
	switch {
	case input.LeagueID == "":
		return waiver.Claim{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	case input.UserID == "":
		return waiver.Claim{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case input.PlayerID == "":
		return waiver.Claim{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	case input.PlayerID == input.DropPlayerID:
		return waiver.Claim{}, fmt.Errorf("%w: cannot claim and drop the same player", ErrInvalidInput)
	}

	if _, err := getLeague(ctx, s.leagueRepo, input.LeagueID); err != nil {
		return waiver.Claim{}, err
	}

	tm, exists, err := s.teamRepo.GetByUser(ctx, input.LeagueID, input.UserID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get team by user: %w", err)
	}
	if !exists {
		return waiver.Claim{}, fmt.Errorf("%w: user=%s: %w", ErrNotFound, input.UserID, ownership.ErrTeamNotFound)
	}

	if err := ensurePlayerAvailable(ctx, s.playerRepo, input.LeagueID, input.PlayerID); err != nil {
		return waiver.Claim{}, err
	}

	claimID, err := s.unit.idGen.NewID()
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("generate claim id: %w", err)
	}

	now := s.now().UTC()
	processAt := now.Add(s.cfg.ClaimDelay)
	if input.ProcessAt != nil && !input.ProcessAt.IsZero() {
		processAt = input.ProcessAt.UTC()
	}

	claim := waiver.Claim{
		ID:              claimID,
		LeagueID:        input.LeagueID,
		TeamID:          tm.ID,
		PlayerID:        input.PlayerID,
		DroppedPlayerID: input.DropPlayerID,
		Status:          waiver.StatusPending,
		ProcessAt:       processAt,
		CreatedAt:       now,
	}

	err = s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		if err := tx.LockKey(ctx, ownership.PriorityLockKey(input.LeagueID)); err != nil {
			return fmt.Errorf("lock waiver priority: %w", err)
		}
		priority, err := tx.EnsurePriority(ctx, input.LeagueID, tm.ID)
		if err != nil {
			return fmt.Errorf("ensure waiver priority: %w", err)
		}
		claim.PrioritySnapshot = priority

		if err := tx.InsertClaim(ctx, claim); err != nil {
			return fmt.Errorf("insert waiver claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return waiver.Claim{}, err
	}

	s.logger.InfoContext(ctx, "waiver claim submitted",
		"league_id", claim.LeagueID,
		"team_id", claim.TeamID,
		"claim_id", claim.ID,
		"player_id", claim.PlayerID,
		"priority", claim.PrioritySnapshot,
		"process_at", claim.ProcessAt,
	)

	return claim, nil
}

func (s *WaiverService) ListClaims(ctx context.Context, leagueID, status string) ([]waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.ListClaims")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	filter := waiver.Status(strings.ToLower(strings.TrimSpace(status)))
	if filter != "" && !filter.Valid() {
		return nil, fmt.Errorf("%w: unknown claim status %q", ErrInvalidInput, status)
	}

	items, err := s.waiverRepo.ListClaims(ctx, leagueID, filter)
	if err != nil {
		return nil, fmt.Errorf("list waiver claims: %w", err)
	}
	return items, nil
}

func (s *WaiverService) ListPriorities(ctx context.Context, leagueID string) ([]waiver.Priority, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.ListPriorities")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if _, err := getLeague(ctx, s.leagueRepo, leagueID); err != nil {
		return nil, err
	}

	items, err := s.waiverRepo.ListPriorities(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list waiver priorities: %w", err)
	}
	return items, nil
}

// ProcessWaivers drains the due claims of one league in waiver priority order.
// It returns ownership.ErrLockNotAcquired without waiting when another batch holds the league.
func (s *WaiverService) ProcessWaivers(ctx context.Context, leagueID string) (WaiverBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.ProcessWaivers")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return WaiverBatchResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	lg, err := getLeague(ctx, s.leagueRepo, leagueID)
	if err != nil {
		return WaiverBatchResult{}, err
	}

	unlock, err := s.locker.TryLock(ctx, waiver.LockKey(leagueID), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, ownership.ErrLockNotAcquired) {
			return WaiverBatchResult{}, fmt.Errorf("league=%s: %w", leagueID, ownership.ErrLockNotAcquired)
		}
		return WaiverBatchResult{}, fmt.Errorf("acquire waiver lock: %w", err)
	}
	defer unlock()

	started := time.Now()
	limit := lg.WaiverBatchSize
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}

	var (
		outcomes []waiver.Outcome
		events   []ownership.ChangeEvent
	)
	err = s.unit.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		outcomes = outcomes[:0]
		events = events[:0]

		acquired, err := tx.TryLockKey(ctx, waiver.LockKey(leagueID))
		if err != nil {
			return fmt.Errorf("try waiver league lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("league=%s: %w", leagueID, ownership.ErrLockNotAcquired)
		}
		if err := tx.LockKey(ctx, ownership.PriorityLockKey(leagueID)); err != nil {
			return fmt.Errorf("lock waiver priority: %w", err)
		}

		now := s.now().UTC()
		due, err := tx.ListDueClaims(ctx, leagueID, now, limit)
		if err != nil {
			return fmt.Errorf("list due waiver claims: %w", err)
		}
		if len(due) == 0 {
			return nil
		}

		priorityRows, err := tx.ListPriorities(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("list waiver priorities: %w", err)
		}
		priorities := make(map[string]int, len(priorityRows))
		for _, row := range priorityRows {
			priorities[row.TeamID] = row.Priority
		}

		for len(due) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			next := nextClaimIndex(due, priorities)
			claim := due[next]
			due = append(due[:next], due[next+1:]...)

			var newPriority int
			claimErr := tx.Nested(ctx, func(ctx context.Context) error {
				priority, err := s.applyClaim(ctx, tx, lg, claim, now, started)
				if err != nil {
					return err
				}
				newPriority = priority
				return nil
			})
			if claimErr == nil {
				priorities[claim.TeamID] = newPriority
				outcomes = append(outcomes, waiver.Outcome{
					ClaimID:  claim.ID,
					TeamID:   claim.TeamID,
					PlayerID: claim.PlayerID,
					Status:   waiver.StatusProcessed,
				})
				events = append(events, ownership.ChangeEvent{
					LeagueID:        leagueID,
					TeamID:          claim.TeamID,
					AddedPlayerID:   claim.PlayerID,
					DroppedPlayerID: claim.DroppedPlayerID,
					Action:          ownership.ActionWaiver,
					OccurredAt:      now,
				})
				continue
			}

			reason := ownership.ReasonOf(claimErr)
			if err := tx.MarkClaim(ctx, claim.ID, waiver.StatusFailed, string(reason), now); err != nil {
				return fmt.Errorf("mark waiver claim failed id=%s: %w", claim.ID, err)
			}
			failureID, err := s.unit.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate failure entry id: %w", err)
			}
			if err := tx.AppendFailure(ctx, ownership.FailedEntry{
				ID:              failureID,
				LeagueID:        leagueID,
				TeamID:          claim.TeamID,
				PlayerID:        claim.PlayerID,
				DroppedPlayerID: claim.DroppedPlayerID,
				Reason:          reason,
				Detail:          claimErr.Error(),
				Source:          ownership.SourceWaiver,
				AttemptedAt:     now,
			}); err != nil {
				return fmt.Errorf("append failure entry: %w", err)
			}

			if reason == ownership.ReasonInternal {
				s.logger.WarnContext(ctx, "waiver claim failed on infrastructure error",
					"league_id", leagueID,
					"claim_id", claim.ID,
					"error", claimErr,
				)
			}
			outcomes = append(outcomes, waiver.Outcome{
				ClaimID:       claim.ID,
				TeamID:        claim.TeamID,
				PlayerID:      claim.PlayerID,
				Status:        waiver.StatusFailed,
				FailureReason: string(reason),
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ownership.ErrLockNotAcquired) {
			return WaiverBatchResult{}, err
		}
		return WaiverBatchResult{}, fmt.Errorf("process waivers league=%s: %w", leagueID, err)
	}

	s.unit.publish(ctx, events...)

	result := WaiverBatchResult{LeagueID: leagueID, Outcomes: outcomes}
	processed, failed := result.Counts()
	s.logger.InfoContext(ctx, "waiver batch finished",
		"league_id", leagueID,
		"processed", processed,
		"failed", failed,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return result, nil
}

// applyClaim runs one claim with the same checks as a manual move and returns the team's new priority.
func (s *WaiverService) applyClaim(ctx context.Context, tx ownership.Tx, lg league.League, claim waiver.Claim, now, started time.Time) (int, error) {
	_, owned, err := tx.GetOwner(ctx, claim.LeagueID, claim.PlayerID)
	if err != nil {
		return 0, fmt.Errorf("get owner: %w", err)
	}
	if owned {
		return 0, fmt.Errorf("player=%s: %w", claim.PlayerID, ownership.ErrPlayerUnavailable)
	}

	if err := tx.LockTeam(ctx, claim.LeagueID, claim.TeamID); err != nil {
		return 0, fmt.Errorf("lock team: %w", err)
	}

	if claim.DroppedPlayerID != "" {
		if _, err := dropOwned(ctx, tx, claim.LeagueID, claim.TeamID, claim.DroppedPlayerID, false); err != nil {
			return 0, err
		}
	}

	err = insertWithinLimit(ctx, tx, lg, ownership.Record{
		LeagueID:    claim.LeagueID,
		PlayerID:    claim.PlayerID,
		TeamID:      claim.TeamID,
		Acquisition: ownership.AcquisitionWaiver,
		AssignedAt:  now,
	})
	if err != nil {
		if errors.Is(err, ownership.ErrAlreadyOwned) {
			return 0, fmt.Errorf("player=%s: %w", claim.PlayerID, ownership.ErrPlayerUnavailable)
		}
		return 0, err
	}

	if err := tx.MarkClaim(ctx, claim.ID, waiver.StatusProcessed, "", now); err != nil {
		return 0, fmt.Errorf("mark waiver claim processed: %w", err)
	}

	priority, err := tx.MoveToBack(ctx, claim.LeagueID, claim.TeamID)
	if err != nil {
		return 0, fmt.Errorf("move waiver priority to back: %w", err)
	}

	entry, err := s.unit.newLedgerEntry(ownership.LedgerEntry{
		LeagueID:        claim.LeagueID,
		TeamID:          claim.TeamID,
		PlayerID:        claim.PlayerID,
		DroppedPlayerID: claim.DroppedPlayerID,
		Action:          ownership.ActionWaiver,
		Source:          ownership.SourceWaiver,
	}, started, now)
	if err != nil {
		return 0, err
	}
	if err := tx.AppendLedger(ctx, entry); err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}

	return priority, nil
}

// nextClaimIndex picks the claim of the team with the best current priority, then the oldest submission.
func nextClaimIndex(claims []waiver.Claim, priorities map[string]int) int {
	best := 0
	for i := 1; i < len(claims); i++ {
		if claimBefore(claims[i], claims[best], priorities) {
			best = i
		}
	}
	return best
}

func claimBefore(a, b waiver.Claim, priorities map[string]int) bool {
	pa, pb := priorityOf(priorities, a.TeamID), priorityOf(priorities, b.TeamID)
	if pa != pb {
		return pa < pb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func priorityOf(priorities map[string]int, teamID string) int {
	if priority, ok := priorities[teamID]; ok {
		return priority
	}
	return math.MaxInt
}
