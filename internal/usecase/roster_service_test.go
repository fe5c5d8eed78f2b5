package usecase

import (
	"errors"
	"testing"
)

func TestRosterService_GetFreeAgents_PartitionsUniverse(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 3)
	h.mustAdd(t, "team-a", "p-01")
	h.mustAdd(t, "team-a", "p-02")
	h.mustAdd(t, "team-b", "p-03")
	h.mustAdd(t, "team-c", "p-20")
	h.move(t, "team-a", "", "p-02")

	free, err := h.rosters.GetFreeAgents(t.Context(), testLeagueID)
	if err != nil {
		t.Fatalf("get free agents: %v", err)
	}

	seen := make(map[string]string, 20)
	for i, item := range free {
		if !item.Active {
			t.Fatalf("inactive player %s listed as free agent", item.ID)
		}
		if i > 0 && free[i-1].ID >= item.ID {
			t.Fatalf("free agents not sorted by id at %d", i)
		}
		seen[item.ID] = "free"
	}

	for _, teamID := range testTeamIDs(3) {
		roster, err := h.rosters.GetRoster(t.Context(), testLeagueID, teamID)
		if err != nil {
			t.Fatalf("get roster: %v", err)
		}
		for _, entry := range roster {
			if prev, dup := seen[entry.PlayerID]; dup {
				t.Fatalf("player %s appears as %s and on %s", entry.PlayerID, prev, teamID)
			}
			seen[entry.PlayerID] = teamID
		}
	}

	if len(seen) != 20 {
		t.Fatalf("free agents plus rosters should cover the active universe of 20, got %d", len(seen))
	}
	if seen["p-02"] != "free" {
		t.Fatalf("dropped player must be a free agent again, got %q", seen["p-02"])
	}
}

func TestRosterService_GetRoster_UnknownTeam(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	if _, err := h.rosters.GetRoster(t.Context(), testLeagueID, "team-zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.rosters.GetFreeAgents(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRosterService_AuditLimits(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)
	for i := 1; i <= 3; i++ {
		h.mustAdd(t, "team-a", testPlayerID(i))
	}
	h.move(t, "team-b", "p-01", "")

	ledger, err := h.rosters.ListLedger(t.Context(), testLeagueID, 2)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(ledger) != 2 || ledger[0].PlayerID != "p-03" {
		t.Fatalf("expected the two newest ledger entries, got %+v", ledger)
	}

	failures, err := h.rosters.ListFailures(t.Context(), testLeagueID, 0)
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(failures))
	}

	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: defaultAuditLimit},
		{in: -3, want: defaultAuditLimit},
		{in: 10, want: 10},
		{in: 10_000, want: maxAuditLimit},
	}
	for _, tc := range tests {
		if got := normalizeAuditLimit(tc.in); got != tc.want {
			t.Fatalf("normalizeAuditLimit(%d)=%d want %d", tc.in, got, tc.want)
		}
	}
}
