package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
)

// unitSupport carries what every ownership-changing service needs around its transactional unit.
type unitSupport struct {
	transactor ownership.Transactor
	notifier   ownership.Notifier
	idGen      idgen.Generator
	logger     *logging.Logger
}

func newUnitSupport(transactor ownership.Transactor, notifier ownership.Notifier, idGen idgen.Generator, logger *logging.Logger) unitSupport {
	if notifier == nil {
		notifier = ownership.NoopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return unitSupport{
		transactor: transactor,
		notifier:   notifier,
		idGen:      idGen,
		logger:     logger,
	}
}

// recordFailure writes the failure entry in its own unit, after the rejected unit rolled back.
func (u unitSupport) recordFailure(ctx context.Context, entry ownership.FailedEntry) error {
	entryID, err := u.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate failure entry id: %w", err)
	}
	entry.ID = entryID

	if err := u.transactor.WithinTx(ctx, func(ctx context.Context, tx ownership.Tx) error {
		return tx.AppendFailure(ctx, entry)
	}); err != nil {
		return fmt.Errorf("append failure entry: %w", err)
	}

	return nil
}

func (u unitSupport) newLedgerEntry(base ownership.LedgerEntry, started time.Time, now time.Time) (ownership.LedgerEntry, error) {
	entryID, err := u.idGen.NewID()
	if err != nil {
		return ownership.LedgerEntry{}, fmt.Errorf("generate ledger entry id: %w", err)
	}
	base.ID = entryID
	base.CreatedAt = now
	base.DurationMs = time.Since(started).Milliseconds()

	return base, nil
}

// publish runs after commit. The ownership change is already durable, so a failed publish is only logged.
func (u unitSupport) publish(ctx context.Context, events ...ownership.ChangeEvent) {
	for _, event := range events {
		if err := u.notifier.Publish(ctx, event); err != nil {
			u.logger.WarnContext(ctx, "publish ownership change failed",
				"league_id", event.LeagueID,
				"team_id", event.TeamID,
				"action", string(event.Action),
				"error", err,
			)
		}
	}
}

func getLeague(ctx context.Context, repo league.Repository, leagueID string) (league.League, error) {
	item, exists, err := repo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league by id: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	return item, nil
}

// ensurePlayerAvailable checks the player belongs to the active universe of the league.
func ensurePlayerAvailable(ctx context.Context, repo player.Repository, leagueID, playerID string) error {
	players, err := repo.GetByIDs(ctx, leagueID, []string{playerID})
	if err != nil {
		return fmt.Errorf("get players by ids: %w", err)
	}
	if len(players) == 0 || !players[0].Active {
		return fmt.Errorf("player=%s league=%s: %w", playerID, leagueID, ownership.ErrPlayerUnavailable)
	}

	return nil
}
