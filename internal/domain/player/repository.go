package player

import "context"

// Repository reads the player universe of a league.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Player, error)
	GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]Player, error)
}
