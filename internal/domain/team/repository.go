package team

import "context"

// Repository describes team identity reads from use cases.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
	GetByID(ctx context.Context, leagueID, teamID string) (Team, bool, error)
	GetByUser(ctx context.Context, leagueID, userID string) (Team, bool, error)
}
