package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/domain/draft"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-roster/internal/platform/querybuilder"
)

type ownershipTx struct {
	tx         *sqlx.Tx
	savepoints int
}

func (t *ownershipTx) LockTeam(ctx context.Context, leagueID, teamID string) error {
	return t.LockKey(ctx, lockKey("team", leagueID, teamID))
}

func (t *ownershipTx) LockKey(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock key=%s: %w", key, err)
	}
	return nil
}

func (t *ownershipTx) TryLockKey(ctx context.Context, key string) (bool, error) {
	var acquired bool
	if err := t.tx.GetContext(ctx, &acquired, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return false, fmt.Errorf("try advisory lock key=%s: %w", key, err)
	}
	return acquired, nil
}

func (t *ownershipTx) GetOwner(ctx context.Context, leagueID, playerID string) (ownership.Record, bool, error) {
	return getOwner(ctx, t.tx, leagueID, playerID, true)
}

func (t *ownershipTx) CountRoster(ctx context.Context, leagueID, teamID string) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("ownership_records").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("team_id", teamID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count roster query: %w", err)
	}

	var count int
	if err := t.tx.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count roster league=%s team=%s: %w", leagueID, teamID, err)
	}
	return count, nil
}

func (t *ownershipTx) InsertRecord(ctx context.Context, record ownership.Record) error {
	model := ownershipRecordInsertModel{
		LeagueID:    record.LeagueID,
		PlayerID:    record.PlayerID,
		TeamID:      record.TeamID,
		Acquisition: string(record.Acquisition),
		DraftRound:  record.DraftRound,
		DraftPick:   record.DraftPick,
		AssignedAt:  record.AssignedAt.UTC(),
	}

	query, args, err := qb.InsertModel("ownership_records", model, "")
	if err != nil {
		return fmt.Errorf("build insert ownership record query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: league=%s player=%s", ownership.ErrAlreadyOwned, record.LeagueID, record.PlayerID)
		}
		return fmt.Errorf("insert ownership record league=%s player=%s: %w", record.LeagueID, record.PlayerID, err)
	}
	return nil
}

func (t *ownershipTx) DeleteRecord(ctx context.Context, leagueID, teamID, playerID string) (bool, error) {
	query, args, err := qb.DeleteFrom("ownership_records").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("team_id", teamID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete ownership record query: %w", err)
	}

	return t.execAffected(ctx, "delete ownership record", query, args)
}

func (t *ownershipTx) ClearLineupSlot(ctx context.Context, leagueID, teamID, playerID string) error {
	query, args, err := qb.DeleteFrom("lineup_slots").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("team_id", teamID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear lineup slot query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear lineup slot league=%s team=%s player=%s: %w", leagueID, teamID, playerID, err)
	}
	return nil
}

func (t *ownershipTx) AppendLedger(ctx context.Context, entry ownership.LedgerEntry) error {
	model := ledgerInsertModel{
		ID:              entry.ID,
		LeagueID:        entry.LeagueID,
		TeamID:          entry.TeamID,
		PlayerID:        entry.PlayerID,
		DroppedPlayerID: optionalString(entry.DroppedPlayerID),
		Action:          string(entry.Action),
		Source:          entry.Source,
		CreatedAt:       entry.CreatedAt.UTC(),
		DurationMs:      entry.DurationMs,
	}

	query, args, err := qb.InsertModel("transaction_ledger", model, "")
	if err != nil {
		return fmt.Errorf("build insert ledger entry query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ledger entry id=%s: %w", entry.ID, err)
	}
	return nil
}

func (t *ownershipTx) AppendFailure(ctx context.Context, entry ownership.FailedEntry) error {
	model := failureInsertModel{
		ID:              entry.ID,
		LeagueID:        entry.LeagueID,
		TeamID:          entry.TeamID,
		PlayerID:        entry.PlayerID,
		DroppedPlayerID: optionalString(entry.DroppedPlayerID),
		Reason:          string(entry.Reason),
		Detail:          entry.Detail,
		Source:          entry.Source,
		AttemptedAt:     entry.AttemptedAt.UTC(),
	}

	query, args, err := qb.InsertModel("failed_transactions", model, "")
	if err != nil {
		return fmt.Errorf("build insert failure entry query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert failure entry id=%s: %w", entry.ID, err)
	}
	return nil
}

func (t *ownershipTx) GetReservation(ctx context.Context, leagueID, playerID string) (draft.Reservation, bool, error) {
	query, args, err := qb.Select("*").From("draft_reservations").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("player_id", playerID),
		).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return draft.Reservation{}, false, fmt.Errorf("build get reservation query: %w", err)
	}

	var row reservationTableModel
	if err := t.tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return draft.Reservation{}, false, nil
		}
		return draft.Reservation{}, false, fmt.Errorf("get reservation league=%s player=%s: %w", leagueID, playerID, err)
	}

	return draft.Reservation{
		LeagueID:   row.LeagueID,
		PlayerID:   row.PlayerID,
		TeamID:     row.TeamID,
		ReservedAt: row.ReservedAt,
		ExpiresAt:  row.ExpiresAt,
	}, true, nil
}

// PutReservation takes over a row only when the holder matches or the hold has expired.
func (t *ownershipTx) PutReservation(ctx context.Context, r draft.Reservation, now time.Time) (bool, error) {
	model := reservationTableModel{
		LeagueID:   r.LeagueID,
		PlayerID:   r.PlayerID,
		TeamID:     r.TeamID,
		ReservedAt: r.ReservedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}

	query, args, err := qb.InsertModel("draft_reservations", model, `ON CONFLICT (league_id, player_id)
DO UPDATE SET
    team_id = EXCLUDED.team_id,
    reserved_at = EXCLUDED.reserved_at,
    expires_at = EXCLUDED.expires_at
WHERE draft_reservations.team_id = EXCLUDED.team_id
    OR draft_reservations.expires_at <= ?
RETURNING team_id`, now.UTC())
	if err != nil {
		return false, fmt.Errorf("build put reservation query: %w", err)
	}

	var holder string
	if err := t.tx.GetContext(ctx, &holder, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("put reservation league=%s player=%s: %w", r.LeagueID, r.PlayerID, err)
	}
	return holder == r.TeamID, nil
}

func (t *ownershipTx) DeleteReservation(ctx context.Context, leagueID, playerID, teamID string) (bool, error) {
	conditions := []qb.Condition{
		qb.Eq("league_id", leagueID),
		qb.Eq("player_id", playerID),
	}
	if teamID != "" {
		conditions = append(conditions, qb.Eq("team_id", teamID))
	}

	query, args, err := qb.DeleteFrom("draft_reservations").Where(conditions...).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete reservation query: %w", err)
	}

	return t.execAffected(ctx, "delete reservation", query, args)
}

func (t *ownershipTx) DeleteExpiredReservations(ctx context.Context, now time.Time) (int, error) {
	query, args, err := qb.DeleteFrom("draft_reservations").
		Where(qb.Expr("expires_at <= ?", now.UTC())).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete expired reservations query: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired reservations: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read expired reservations rows affected: %w", err)
	}
	return int(removed), nil
}

func (t *ownershipTx) InsertClaim(ctx context.Context, claim waiver.Claim) error {
	model := waiverClaimInsertModel{
		ID:               claim.ID,
		LeagueID:         claim.LeagueID,
		TeamID:           claim.TeamID,
		PlayerID:         claim.PlayerID,
		DroppedPlayerID:  optionalString(claim.DroppedPlayerID),
		Status:           string(claim.Status),
		PrioritySnapshot: claim.PrioritySnapshot,
		ProcessAt:        claim.ProcessAt.UTC(),
		CreatedAt:        claim.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("waiver_claims", model, "")
	if err != nil {
		return fmt.Errorf("build insert waiver claim query: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert waiver claim id=%s: %w", claim.ID, err)
	}
	return nil
}

// ListDueClaims orders by the current waiver priority, teams without one last.
func (t *ownershipTx) ListDueClaims(ctx context.Context, leagueID string, now time.Time, limit int) ([]waiver.Claim, error) {
	query, args, err := qb.Select("c.*").From("waiver_claims c").
		Join("LEFT JOIN team_waiver_priorities p ON p.league_id = c.league_id AND p.team_id = c.team_id").
		Where(
			qb.Eq("c.league_id", leagueID),
			qb.Eq("c.status", string(waiver.StatusPending)),
			qb.Expr("c.process_at <= ?", now.UTC()),
		).
		OrderBy("p.priority ASC NULLS LAST", "c.created_at ASC", "c.id ASC").
		Limit(limit).
		Suffix("FOR UPDATE OF c SKIP LOCKED").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select due claims query: %w", err)
	}

	var rows []waiverClaimTableModel
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select due claims league=%s: %w", leagueID, err)
	}

	return claimsFromRows(rows), nil
}

func (t *ownershipTx) MarkClaim(ctx context.Context, claimID string, status waiver.Status, failureReason string, processedAt time.Time) error {
	query, args, err := qb.Update("waiver_claims").
		Set("status", string(status)).
		Set("failure_reason", optionalString(failureReason)).
		Set("processed_at", processedAt.UTC()).
		Where(
			qb.Eq("id", claimID),
			qb.Eq("status", string(waiver.StatusPending)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark waiver claim query: %w", err)
	}

	updated, err := t.execAffected(ctx, "mark waiver claim", query, args)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("mark waiver claim id=%s: claim is missing or no longer pending", claimID)
	}
	return nil
}

func (t *ownershipTx) ListPriorities(ctx context.Context, leagueID string) ([]waiver.Priority, error) {
	return listPriorities(ctx, t.tx, leagueID)
}

func (t *ownershipTx) EnsurePriority(ctx context.Context, leagueID, teamID string) (int, error) {
	const insertQuery = `
INSERT INTO team_waiver_priorities (league_id, team_id, priority)
SELECT $1, $2, COALESCE(MAX(priority), 0) + 1
FROM team_waiver_priorities
WHERE league_id = $1
ON CONFLICT (league_id, team_id) DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, insertQuery, leagueID, teamID); err != nil {
		return 0, fmt.Errorf("ensure waiver priority league=%s team=%s: %w", leagueID, teamID, err)
	}

	query, args, err := qb.Select("priority").From("team_waiver_priorities").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("team_id", teamID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build get waiver priority query: %w", err)
	}

	var priority int
	if err := t.tx.GetContext(ctx, &priority, query, args...); err != nil {
		return 0, fmt.Errorf("get waiver priority league=%s team=%s: %w", leagueID, teamID, err)
	}
	return priority, nil
}

func (t *ownershipTx) MoveToBack(ctx context.Context, leagueID, teamID string) (int, error) {
	const query = `
INSERT INTO team_waiver_priorities (league_id, team_id, priority)
SELECT $1, $2, COALESCE(MAX(priority), 0) + 1
FROM team_waiver_priorities
WHERE league_id = $1
ON CONFLICT (league_id, team_id) DO UPDATE SET
    priority = EXCLUDED.priority,
    updated_at = NOW()
RETURNING priority`

	var priority int
	if err := t.tx.GetContext(ctx, &priority, query, leagueID, teamID); err != nil {
		return 0, fmt.Errorf("move waiver priority to back league=%s team=%s: %w", leagueID, teamID, err)
	}
	return priority, nil
}

func (t *ownershipTx) Nested(ctx context.Context, fn func(ctx context.Context) error) error {
	t.savepoints++
	name := "sp_" + strconv.Itoa(t.savepoints)

	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint %s: %w", name, err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint %s: %w (cause: %v)", name, rbErr, err)
		}
		return err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

func (t *ownershipTx) execAffected(ctx context.Context, op, query string, args []any) (bool, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return affected > 0, nil
}
