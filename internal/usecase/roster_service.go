package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// RosterService serves the read side of ownership: rosters, free agents and the audit trail.
type RosterService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	reader     ownership.Reader
}

func NewRosterService(leagueRepo league.Repository, teamRepo team.Repository, playerRepo player.Repository, reader ownership.Reader) *RosterService {
	return &RosterService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		reader:     reader,
	}
}

func (s *RosterService) GetRoster(ctx context.Context, leagueID, teamID string) ([]ownership.RosterEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetRoster")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	teamID = strings.TrimSpace(teamID)
	if leagueID == "" || teamID == "" {
		return nil, fmt.Errorf("%w: league id and team id are required", ErrInvalidInput)
	}

	_, exists, err := s.teamRepo.GetByID(ctx, leagueID, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team by id: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: team=%s league=%s", ErrNotFound, teamID, leagueID)
	}

	items, err := s.reader.ListRoster(ctx, leagueID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	return items, nil
}

// GetFreeAgents returns the active player universe minus every owned player, recomputed per call.
func (s *RosterService) GetFreeAgents(ctx context.Context, leagueID string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetFreeAgents")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if _, err := getLeague(ctx, s.leagueRepo, leagueID); err != nil {
		return nil, err
	}

	universe, err := s.playerRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list players by league: %w", err)
	}

	ownedIDs, err := s.reader.ListOwnedPlayerIDs(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list owned player ids: %w", err)
	}
	owned := make(map[string]struct{}, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = struct{}{}
	}

	out := make([]player.Player, 0, len(universe))
	for _, item := range universe {
		if !item.Active {
			continue
		}
		if _, taken := owned[item.ID]; taken {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *RosterService) ListLedger(ctx context.Context, leagueID string, limit int) ([]ownership.LedgerEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListLedger")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	items, err := s.reader.ListLedger(ctx, leagueID, normalizeAuditLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return items, nil
}

func (s *RosterService) ListFailures(ctx context.Context, leagueID string, limit int) ([]ownership.FailedEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListFailures")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	items, err := s.reader.ListFailures(ctx, leagueID, normalizeAuditLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	return items, nil
}

func normalizeAuditLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultAuditLimit
	case limit > maxAuditLimit:
		return maxAuditLimit
	default:
		return limit
	}
}
