package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
)

type TeamRepository struct {
	mu            sync.RWMutex
	teamsByLeague map[string][]team.Team
	byUser        map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	teamsByLeague := make(map[string][]team.Team)
	byUser := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		teamsByLeague[item.LeagueID] = append(teamsByLeague[item.LeagueID], item)
		byUser[userKey(item.LeagueID, item.UserID)] = item
	}

	return &TeamRepository{
		teamsByLeague: teamsByLeague,
		byUser:        byUser,
	}
}

func (r *TeamRepository) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := r.teamsByLeague[leagueID]
	out := make([]team.Team, 0, len(teams))
	out = append(out, teams...)

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, leagueID, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.teamsByLeague[leagueID] {
		if item.ID == teamID {
			return item, true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) GetByUser(_ context.Context, leagueID, userID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byUser[userKey(leagueID, userID)]
	return item, ok, nil
}

func userKey(leagueID, userID string) string {
	return leagueID + "|" + userID
}
