package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-roster/internal/platform/querybuilder"
)

// OwnershipStore runs ownership units as READ COMMITTED transactions.
// Conflicting units serialise on advisory locks and the ownership primary key.
type OwnershipStore struct {
	db *sqlx.DB
}

func NewOwnershipStore(db *sqlx.DB) *OwnershipStore {
	return &OwnershipStore{db: db}
}

func (s *OwnershipStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ownership.Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ownership tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(ctx, &ownershipTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit ownership tx: %w", err)
	}

	return nil
}

func (s *OwnershipStore) GetOwner(ctx context.Context, leagueID, playerID string) (ownership.Record, bool, error) {
	return getOwner(ctx, s.db, leagueID, playerID, false)
}

func (s *OwnershipStore) ListRoster(ctx context.Context, leagueID, teamID string) ([]ownership.RosterEntry, error) {
	query, args, err := qb.Select(
		"o.player_id",
		"o.acquisition",
		"o.draft_round",
		"o.draft_pick",
		"COALESCE(l.slot, '') AS lineup_slot",
		"o.assigned_at",
	).From("ownership_records o").
		Join("LEFT JOIN lineup_slots l ON l.league_id = o.league_id AND l.team_id = o.team_id AND l.player_id = o.player_id").
		Where(
			qb.Eq("o.league_id", leagueID),
			qb.Eq("o.team_id", teamID),
		).
		OrderBy("o.player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select roster query: %w", err)
	}

	var rows []rosterEntryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select roster league=%s team=%s: %w", leagueID, teamID, err)
	}

	out := make([]ownership.RosterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ownership.RosterEntry{
			PlayerID:    row.PlayerID,
			Acquisition: ownership.Acquisition(row.Acquisition),
			DraftRound:  nullIntPtr(row.DraftRound),
			DraftPick:   nullIntPtr(row.DraftPick),
			LineupSlot:  row.LineupSlot,
			AssignedAt:  row.AssignedAt,
		})
	}

	return out, nil
}

func (s *OwnershipStore) ListOwnedPlayerIDs(ctx context.Context, leagueID string) ([]string, error) {
	query, args, err := qb.Select("player_id").From("ownership_records").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select owned players query: %w", err)
	}

	out := make([]string, 0)
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select owned players league=%s: %w", leagueID, err)
	}

	return out, nil
}

func (s *OwnershipStore) ListLedger(ctx context.Context, leagueID string, limit int) ([]ownership.LedgerEntry, error) {
	query, args, err := qb.Select("*").From("transaction_ledger").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select ledger query: %w", err)
	}

	var rows []ledgerTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select ledger league=%s: %w", leagueID, err)
	}

	out := make([]ownership.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ownership.LedgerEntry{
			ID:              row.ID,
			LeagueID:        row.LeagueID,
			TeamID:          row.TeamID,
			PlayerID:        row.PlayerID,
			DroppedPlayerID: nullStringValue(row.DroppedPlayerID),
			Action:          ownership.Action(row.Action),
			Source:          row.Source,
			CreatedAt:       row.CreatedAt,
			DurationMs:      row.DurationMs,
		})
	}

	return out, nil
}

func (s *OwnershipStore) ListFailures(ctx context.Context, leagueID string, limit int) ([]ownership.FailedEntry, error) {
	query, args, err := qb.Select("*").From("failed_transactions").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("attempted_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select failures query: %w", err)
	}

	var rows []failureTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select failures league=%s: %w", leagueID, err)
	}

	out := make([]ownership.FailedEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ownership.FailedEntry{
			ID:              row.ID,
			LeagueID:        row.LeagueID,
			TeamID:          row.TeamID,
			PlayerID:        row.PlayerID,
			DroppedPlayerID: nullStringValue(row.DroppedPlayerID),
			Reason:          ownership.Reason(row.Reason),
			Detail:          row.Detail,
			Source:          row.Source,
			AttemptedAt:     row.AttemptedAt,
		})
	}

	return out, nil
}

func (s *OwnershipStore) ListClaims(ctx context.Context, leagueID string, status waiver.Status) ([]waiver.Claim, error) {
	conditions := []qb.Condition{qb.Eq("league_id", leagueID)}
	if status != "" {
		conditions = append(conditions, qb.Eq("status", string(status)))
	}

	query, args, err := qb.Select("*").From("waiver_claims").
		Where(conditions...).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select waiver claims query: %w", err)
	}

	var rows []waiverClaimTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select waiver claims league=%s: %w", leagueID, err)
	}

	return claimsFromRows(rows), nil
}

func (s *OwnershipStore) ListPriorities(ctx context.Context, leagueID string) ([]waiver.Priority, error) {
	return listPriorities(ctx, s.db, leagueID)
}

func getOwner(ctx context.Context, q sqlx.QueryerContext, leagueID, playerID string, forUpdate bool) (ownership.Record, bool, error) {
	builder := qb.Select("*").From("ownership_records").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("player_id", playerID),
		)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return ownership.Record{}, false, fmt.Errorf("build get owner query: %w", err)
	}

	var row ownershipRecordTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return ownership.Record{}, false, nil
		}
		return ownership.Record{}, false, fmt.Errorf("get owner league=%s player=%s: %w", leagueID, playerID, err)
	}

	return ownership.Record{
		LeagueID:    row.LeagueID,
		PlayerID:    row.PlayerID,
		TeamID:      row.TeamID,
		Acquisition: ownership.Acquisition(row.Acquisition),
		DraftRound:  nullIntPtr(row.DraftRound),
		DraftPick:   nullIntPtr(row.DraftPick),
		AssignedAt:  row.AssignedAt,
	}, true, nil
}

func listPriorities(ctx context.Context, q sqlx.QueryerContext, leagueID string) ([]waiver.Priority, error) {
	query, args, err := qb.Select("league_id", "team_id", "priority").From("team_waiver_priorities").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("priority ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select waiver priorities query: %w", err)
	}

	var rows []waiverPriorityTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select waiver priorities league=%s: %w", leagueID, err)
	}

	out := make([]waiver.Priority, 0, len(rows))
	for _, row := range rows {
		out = append(out, waiver.Priority{
			LeagueID: row.LeagueID,
			TeamID:   row.TeamID,
			Priority: row.Priority,
		})
	}

	return out, nil
}

func claimsFromRows(rows []waiverClaimTableModel) []waiver.Claim {
	out := make([]waiver.Claim, 0, len(rows))
	for _, row := range rows {
		claim := waiver.Claim{
			ID:               row.ID,
			LeagueID:         row.LeagueID,
			TeamID:           row.TeamID,
			PlayerID:         row.PlayerID,
			DroppedPlayerID:  nullStringValue(row.DroppedPlayerID),
			Status:           waiver.Status(row.Status),
			PrioritySnapshot: row.PrioritySnapshot,
			ProcessAt:        row.ProcessAt,
			CreatedAt:        row.CreatedAt,
			FailureReason:    nullStringValue(row.FailureReason),
		}
		if row.ProcessedAt.Valid {
			processedAt := row.ProcessedAt.Time
			claim.ProcessedAt = &processedAt
		}
		out = append(out, claim)
	}
	return out
}
