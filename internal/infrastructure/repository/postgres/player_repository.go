package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	qb "github.com/riskibarqy/fantasy-roster/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"public_id",
	"league_public_id",
	"club",
	"name",
	"position",
	"is_active",
	"created_at",
	"updated_at",
	"deleted_at",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by league query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by league: %w", err)
	}

	return playersFromRows(rows), nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.In("public_id", stringSliceToAny(playerIDs)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by ids: %w", err)
	}

	return playersFromRows(rows), nil
}

func playersFromRows(rows []playerTableModel) []player.Player {
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{
			ID:       row.PublicID,
			LeagueID: row.LeagueID,
			Club:     row.Club,
			Name:     row.Name,
			Position: player.Position(row.Position),
			Active:   row.IsActive,
		})
	}
	return out
}
