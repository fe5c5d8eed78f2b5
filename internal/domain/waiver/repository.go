package waiver

import "context"

// Repository serves waiver reads outside a batch.
type Repository interface {
	ListClaims(ctx context.Context, leagueID string, status Status) ([]Claim, error)
	ListPriorities(ctx context.Context, leagueID string) ([]Priority, error)
}
