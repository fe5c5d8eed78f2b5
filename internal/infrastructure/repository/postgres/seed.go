package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo leagues into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM leagues WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count leagues for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO leagues (public_id, name, season, max_roster_size, waiver_batch_size)
VALUES (:public_id, :name, :season, :max_roster_size, :waiver_batch_size)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":         l.ID,
			"name":              l.Name,
			"season":            l.Season,
			"max_roster_size":   l.RosterLimit(),
			"waiver_batch_size": l.WaiverBatchSize,
		})
		if err != nil {
			return fmt.Errorf("bind seed league %s query: %w", l.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed league %s: %w", l.ID, err)
		}
	}

	for _, t := range memory.SeedTeams() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (public_id, league_public_id, user_id, name)
VALUES (:public_id, :league_public_id, :user_id, :name)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":        t.ID,
			"league_public_id": t.LeagueID,
			"user_id":          t.UserID,
			"name":             t.Name,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", t.ID, err)
		}
	}

	for _, p := range memory.SeedPlayers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (public_id, league_public_id, club, name, position, is_active)
VALUES (:public_id, :league_public_id, :club, :name, :position, :is_active)
ON CONFLICT (league_public_id, public_id) DO NOTHING`, map[string]any{
			"public_id":        p.ID,
			"league_public_id": p.LeagueID,
			"club":             p.Club,
			"name":             p.Name,
			"position":         string(p.Position),
			"is_active":        p.Active,
		})
		if err != nil {
			return fmt.Errorf("bind seed player %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
