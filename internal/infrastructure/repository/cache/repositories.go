package cache

import (
	"context"
	"strings"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	basecache "github.com/riskibarqy/fantasy-roster/internal/platform/cache"
)

// Decorators in this file cache configuration reads only. Ownership state is never cached.

type cachedLookup[T any] struct {
	value  T
	exists bool
}

func loadList[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	v, err := store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return append([]T(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]T)
	return append([]T(nil), items...), nil
}

func loadOne[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) (T, bool, error)) (T, bool, error) {
	v, err := store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return cachedLookup[T]{value: item, exists: exists}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}

	cached, _ := v.(cachedLookup[T])
	return cached.value, cached.exists, nil
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	return loadList(ctx, r.cache, cacheKey("league", "list"), r.next.List)
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return loadOne(ctx, r.cache, cacheKey("league", "id", leagueID), func(ctx context.Context) (league.League, bool, error) {
		return r.next.GetByID(ctx, leagueID)
	})
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	return loadList(ctx, r.cache, cacheKey("team", "list", leagueID), func(ctx context.Context) ([]team.Team, error) {
		return r.next.ListByLeague(ctx, leagueID)
	})
}

func (r *TeamRepository) GetByID(ctx context.Context, leagueID, teamID string) (team.Team, bool, error) {
	return loadOne(ctx, r.cache, cacheKey("team", "id", leagueID, teamID), func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByID(ctx, leagueID, teamID)
	})
}

func (r *TeamRepository) GetByUser(ctx context.Context, leagueID, userID string) (team.Team, bool, error) {
	return loadOne(ctx, r.cache, cacheKey("team", "user", leagueID, userID), func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByUser(ctx, leagueID, userID)
	})
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error) {
	return loadList(ctx, r.cache, cacheKey("player", "list", leagueID), func(ctx context.Context) ([]player.Player, error) {
		return r.next.ListByLeague(ctx, leagueID)
	})
}

// GetByIDs answers from the cached league universe so lookups for different id sets share one entry.
func (r *PlayerRepository) GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	universe, err := r.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]player.Player, len(universe))
	for _, p := range universe {
		index[p.ID] = p
	}

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
