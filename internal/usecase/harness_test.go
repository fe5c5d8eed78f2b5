package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
	"github.com/riskibarqy/fantasy-roster/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
)

const (
	testLeagueID    = "test-league"
	testRosterLimit = 3
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testHarness struct {
	clock    *testClock
	store    *memory.OwnershipStore
	notifier *memory.Notifier
	locker   *memory.KeyLocker
	runs     *memory.JobRunRepository

	leagueRepo *memory.LeagueRepository
	teamRepo   *memory.TeamRepository
	playerRepo *memory.PlayerRepository

	moves       *MoveService
	drafts      *DraftService
	waivers     *WaiverService
	rosters     *RosterService
	maintenance *MaintenanceService
}

// testTeamIDs returns team-a.. with users user-a.. in the test league.
func testTeamIDs(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("team-%c", 'a'+i))
	}
	return out
}

func testUserFor(teamID string) string {
	return "user-" + teamID[len("team-"):]
}

func testPlayerID(i int) string {
	return fmt.Sprintf("p-%02d", i)
}

func newTestHarness(t *testing.T, teamCount int) *testHarness {
	t.Helper()

	leagues := []league.League{
		{ID: testLeagueID, Name: "Test League", Season: "2026", MaxRosterSize: testRosterLimit},
		{ID: "other-league", Name: "Other League", Season: "2026", MaxRosterSize: testRosterLimit},
	}

	teams := make([]team.Team, 0, teamCount)
	for _, id := range testTeamIDs(teamCount) {
		teams = append(teams, team.Team{ID: id, LeagueID: testLeagueID, UserID: testUserFor(id), Name: id})
	}

	players := make([]player.Player, 0, 21)
	for i := 1; i <= 20; i++ {
		players = append(players, player.Player{
			ID:       testPlayerID(i),
			LeagueID: testLeagueID,
			Name:     "Player " + testPlayerID(i),
			Position: player.PositionMidfielder,
			Active:   true,
		})
	}
	players = append(players, player.Player{ID: "p-retired", LeagueID: testLeagueID, Name: "Retired", Active: false})

	h := &testHarness{
		clock:      newTestClock(),
		store:      memory.NewOwnershipStore(),
		notifier:   memory.NewNotifier(),
		locker:     memory.NewKeyLocker(),
		runs:       memory.NewJobRunRepository(),
		leagueRepo: memory.NewLeagueRepository(leagues),
		teamRepo:   memory.NewTeamRepository(teams),
		playerRepo: memory.NewPlayerRepository(players),
	}
	ids := idgen.NewUUIDGenerator()

	h.moves = NewMoveService(h.leagueRepo, h.teamRepo, h.playerRepo, h.store, h.notifier, ids, nil)
	h.moves.now = h.clock.Now

	h.drafts = NewDraftService(h.leagueRepo, h.teamRepo, h.playerRepo, h.store, h.notifier, ids, 30*time.Second, nil)
	h.drafts.now = h.clock.Now

	h.waivers = NewWaiverService(h.leagueRepo, h.teamRepo, h.playerRepo, h.store, h.locker, h.store, h.notifier, ids, WaiverConfig{}, nil)
	h.waivers.now = h.clock.Now

	h.rosters = NewRosterService(h.leagueRepo, h.teamRepo, h.playerRepo, h.store)

	h.maintenance = NewMaintenanceService(h.leagueRepo, h.waivers, h.drafts, h.runs, ids, 2, nil)
	h.maintenance.now = h.clock.Now

	return h
}

func (h *testHarness) move(t *testing.T, teamID, addPlayerID, dropPlayerID string) MoveResult {
	t.Helper()

	result, err := h.moves.ProcessMove(t.Context(), MoveInput{
		LeagueID:     testLeagueID,
		UserID:       testUserFor(teamID),
		AddPlayerID:  addPlayerID,
		DropPlayerID: dropPlayerID,
	})
	if err != nil {
		t.Fatalf("process move team=%s add=%s drop=%s: %v", teamID, addPlayerID, dropPlayerID, err)
	}
	return result
}

func (h *testHarness) mustAdd(t *testing.T, teamID, playerID string) {
	t.Helper()

	if result := h.move(t, teamID, playerID, ""); !result.Succeeded() || result.NoOp {
		t.Fatalf("expected add of %s to %s to succeed, got %+v", playerID, teamID, result)
	}
}

func (h *testHarness) ledger(t *testing.T) []ownership.LedgerEntry {
	t.Helper()

	items, err := h.store.ListLedger(context.Background(), testLeagueID, 0)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	return items
}

func (h *testHarness) failures(t *testing.T) []ownership.FailedEntry {
	t.Helper()

	items, err := h.store.ListFailures(context.Background(), testLeagueID, 0)
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	return items
}

func (h *testHarness) owner(t *testing.T, playerID string) (string, bool) {
	t.Helper()

	record, ok, err := h.store.GetOwner(context.Background(), testLeagueID, playerID)
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	return record.TeamID, ok
}

func (h *testHarness) rosterSize(t *testing.T, teamID string) int {
	t.Helper()

	items, err := h.store.ListRoster(context.Background(), testLeagueID, teamID)
	if err != nil {
		t.Fatalf("list roster: %v", err)
	}
	return len(items)
}
