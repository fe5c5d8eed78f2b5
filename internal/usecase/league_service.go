package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
)

type LeagueService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
}

func NewLeagueService(leagueRepo league.Repository, teamRepo team.Repository) *LeagueService {
	return &LeagueService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
	}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListLeagues")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return leagues, nil
}

func (s *LeagueService) ListTeamsByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListTeamsByLeague")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	if _, err := getLeague(ctx, s.leagueRepo, leagueID); err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams by league: %w", err)
	}

	return teams, nil
}

// TeamForUser resolves the caller's team in a league.
func (s *LeagueService) TeamForUser(ctx context.Context, leagueID, userID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.TeamForUser")
	defer span.End()

	tm, exists, err := s.teamRepo.GetByUser(ctx, strings.TrimSpace(leagueID), strings.TrimSpace(userID))
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by user: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: no team for user in league=%s", ErrNotFound, leagueID)
	}

	return tm, nil
}
