package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/fantasy-roster/internal/domain/lineup"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/sourcegraph/conc"
)

func TestMoveService_ProcessMove_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)

	first := h.move(t, "team-a", "p-01", "")
	if !first.Succeeded() || first.NoOp {
		t.Fatalf("expected first add to apply, got %+v", first)
	}
	if first.LedgerEntryID == "" {
		t.Fatalf("expected ledger entry id on applied move")
	}

	second := h.move(t, "team-a", "p-01", "")
	if !second.Succeeded() || !second.NoOp {
		t.Fatalf("expected repeated add to be a successful no-op, got %+v", second)
	}

	if got := len(h.ledger(t)); got != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", got)
	}
	if got := len(h.failures(t)); got != 0 {
		t.Fatalf("expected no failure entries, got %d", got)
	}
	if got := len(h.notifier.Events()); got != 1 {
		t.Fatalf("expected one published change, got %d", got)
	}
}

func TestMoveService_ProcessMove_ConcurrentAddsHaveOneWinner(t *testing.T) {
	t.Parallel()

	const teams = 8
	h := newTestHarness(t, teams)

	var (
		mu      sync.Mutex
		results []MoveResult
		errs    []error
		wg      conc.WaitGroup
	)
	for _, teamID := range testTeamIDs(teams) {
		wg.Go(func() {
			result, err := h.moves.ProcessMove(context.Background(), MoveInput{
				LeagueID:    testLeagueID,
				UserID:      testUserFor(teamID),
				AddPlayerID: "p-07",
			})
			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
			if err != nil {
				errs = append(errs, err)
			}
		})
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	winners := 0
	for _, result := range results {
		switch {
		case result.Succeeded():
			winners++
		case result.Reason != ownership.ReasonAlreadyOwned:
			t.Fatalf("loser got reason %q, want %q", result.Reason, ownership.ReasonAlreadyOwned)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if got := len(h.ledger(t)); got != 1 {
		t.Fatalf("expected one ledger entry, got %d", got)
	}
	failures := h.failures(t)
	if len(failures) != teams-1 {
		t.Fatalf("expected %d failure entries, got %d", teams-1, len(failures))
	}
	for _, item := range failures {
		if item.Reason != ownership.ReasonAlreadyOwned {
			t.Fatalf("unexpected failure reason %q", item.Reason)
		}
	}
}

func TestMoveService_ProcessMove_ConcurrentAddsNeverExceedRosterLimit(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)

	var (
		mu      sync.Mutex
		applied int
		full    int
		wg      conc.WaitGroup
	)
	for i := 1; i <= 10; i++ {
		playerID := testPlayerID(i)
		wg.Go(func() {
			result, err := h.moves.ProcessMove(context.Background(), MoveInput{
				LeagueID:    testLeagueID,
				UserID:      testUserFor("team-a"),
				AddPlayerID: playerID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("process move: %v", err)
				return
			}
			switch {
			case result.Succeeded():
				applied++
			case result.Reason == ownership.ReasonRosterFull:
				full++
			default:
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
	wg.Wait()

	if applied != testRosterLimit {
		t.Fatalf("expected %d applied adds, got %d", testRosterLimit, applied)
	}
	if full != 10-testRosterLimit {
		t.Fatalf("expected %d roster_full rejections, got %d", 10-testRosterLimit, full)
	}
	if got := h.rosterSize(t, "team-a"); got != testRosterLimit {
		t.Fatalf("roster size=%d want %d", got, testRosterLimit)
	}
}

func TestMoveService_ProcessMove_DropThenRetryByOtherTeam(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)

	h.mustAdd(t, "team-a", "p-03")

	rejected := h.move(t, "team-b", "p-03", "")
	if rejected.Succeeded() || rejected.Reason != ownership.ReasonAlreadyOwned {
		t.Fatalf("expected already_owned, got %+v", rejected)
	}
	if rejected.Message != ownership.ReasonAlreadyOwned.Message() {
		t.Fatalf("unexpected message %q", rejected.Message)
	}

	dropped := h.move(t, "team-a", "", "p-03")
	if !dropped.Succeeded() || dropped.NoOp {
		t.Fatalf("expected drop to apply, got %+v", dropped)
	}

	retried := h.move(t, "team-b", "p-03", "")
	if !retried.Succeeded() {
		t.Fatalf("expected retry to succeed, got %+v", retried)
	}
	if owner, ok := h.owner(t, "p-03"); !ok || owner != "team-b" {
		t.Fatalf("expected team-b to own p-03, got owner=%q ok=%v", owner, ok)
	}

	ledger := h.ledger(t)
	if len(ledger) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(ledger))
	}
	// newest first
	wantActions := []ownership.Action{ownership.ActionAdd, ownership.ActionDrop, ownership.ActionAdd}
	for i, entry := range ledger {
		if entry.Action != wantActions[i] {
			t.Fatalf("ledger[%d].Action=%s want %s", i, entry.Action, wantActions[i])
		}
	}
	if got := len(h.failures(t)); got != 1 {
		t.Fatalf("expected one failure entry, got %d", got)
	}
}

func TestMoveService_ProcessMove_SwapAtRosterLimit(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	for i := 1; i <= testRosterLimit; i++ {
		h.mustAdd(t, "team-a", testPlayerID(i))
	}

	full := h.move(t, "team-a", "p-10", "")
	if full.Succeeded() || full.Reason != ownership.ReasonRosterFull {
		t.Fatalf("expected roster_full on add at max, got %+v", full)
	}

	swap := h.move(t, "team-a", "p-10", "p-01")
	if !swap.Succeeded() {
		t.Fatalf("expected swap at max to succeed, got %+v", swap)
	}
	if got := h.rosterSize(t, "team-a"); got != testRosterLimit {
		t.Fatalf("roster size=%d want %d", got, testRosterLimit)
	}
	if _, ok := h.owner(t, "p-01"); ok {
		t.Fatalf("expected p-01 to be released")
	}

	ledger := h.ledger(t)
	if ledger[0].Action != ownership.ActionSwap || ledger[0].DroppedPlayerID != "p-01" || ledger[0].PlayerID != "p-10" {
		t.Fatalf("unexpected swap ledger entry %+v", ledger[0])
	}
}

func TestMoveService_ProcessMove_SwapWithOneHalfSatisfied(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	h.mustAdd(t, "team-a", "p-02")

	result := h.move(t, "team-a", "p-02", "p-05")
	if !result.Succeeded() || !result.NoOp {
		t.Fatalf("expected both halves already satisfied to be a no-op, got %+v", result)
	}

	h.mustAdd(t, "team-a", "p-05")
	result = h.move(t, "team-a", "p-02", "p-05")
	if !result.Succeeded() || result.NoOp {
		t.Fatalf("expected drop half to apply, got %+v", result)
	}
	if result.DroppedPlayerID != "p-05" || result.AddedPlayerID != "" {
		t.Fatalf("unexpected applied halves %+v", result)
	}
	if h.ledger(t)[0].Action != ownership.ActionDrop {
		t.Fatalf("expected net drop ledger action, got %s", h.ledger(t)[0].Action)
	}
}

func TestMoveService_ProcessMove_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID string
		add    string
		drop   string
		want   ownership.Reason
	}{
		{name: "unknown user", userID: "user-zz", add: "p-01", want: ownership.ReasonTeamNotFound},
		{name: "drop owned by other", userID: "user-b", drop: "p-04", want: ownership.ReasonNotOwned},
		{name: "inactive player", userID: "user-b", add: "p-retired", want: ownership.ReasonPlayerUnavailable},
		{name: "unknown player", userID: "user-b", add: "p-99", want: ownership.ReasonPlayerUnavailable},
		{name: "swap with foreign drop", userID: "user-b", add: "p-09", drop: "p-04", want: ownership.ReasonNotOwned},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHarness(t, 2)
			h.mustAdd(t, "team-a", "p-04")

			result, err := h.moves.ProcessMove(t.Context(), MoveInput{
				LeagueID:     testLeagueID,
				UserID:       tc.userID,
				AddPlayerID:  tc.add,
				DropPlayerID: tc.drop,
			})
			if err != nil {
				t.Fatalf("process move: %v", err)
			}
			if result.Succeeded() || result.Reason != tc.want {
				t.Fatalf("got %+v want reason %q", result, tc.want)
			}

			failures := h.failures(t)
			if len(failures) != 1 || failures[0].Reason != tc.want {
				t.Fatalf("expected one failure entry with reason %q, got %+v", tc.want, failures)
			}
			if got := len(h.ledger(t)); got != 1 {
				t.Fatalf("rejection must not write a ledger entry, got %d entries", got)
			}
			if owner, ok := h.owner(t, "p-04"); !ok || owner != "team-a" {
				t.Fatalf("rejection changed ownership of p-04: owner=%q ok=%v", owner, ok)
			}
		})
	}
}

func TestMoveService_ProcessMove_DropOfFreePlayerIsNoOp(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)

	result := h.move(t, "team-a", "", "p-06")
	if !result.Succeeded() || !result.NoOp {
		t.Fatalf("expected no-op success, got %+v", result)
	}
	if len(h.ledger(t)) != 0 || len(h.failures(t)) != 0 {
		t.Fatalf("no-op must not write ledger or failure entries")
	}
}

func TestMoveService_ProcessMove_DropClearsLineupSlot(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	h.mustAdd(t, "team-a", "p-08")
	h.store.AssignLineupSlot(t.Context(), lineup.Slot{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-08", Slot: "MID1"})

	roster, err := h.rosters.GetRoster(t.Context(), testLeagueID, "team-a")
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster) != 1 || roster[0].LineupSlot != "MID1" {
		t.Fatalf("expected lineup slot before drop, got %+v", roster)
	}

	h.move(t, "team-a", "", "p-08")
	h.mustAdd(t, "team-a", "p-08")

	roster, err = h.rosters.GetRoster(t.Context(), testLeagueID, "team-a")
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster) != 1 || roster[0].LineupSlot != "" {
		t.Fatalf("expected lineup slot cleared by drop, got %+v", roster)
	}
}

func TestMoveService_ProcessMove_InvalidInput(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)

	inputs := []MoveInput{
		{UserID: "user-a", AddPlayerID: "p-01"},
		{LeagueID: testLeagueID, AddPlayerID: "p-01"},
		{LeagueID: testLeagueID, UserID: "user-a"},
		{LeagueID: testLeagueID, UserID: "user-a", AddPlayerID: "p-01", DropPlayerID: "p-01"},
	}
	for _, input := range inputs {
		if _, err := h.moves.ProcessMove(t.Context(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", input, err)
		}
	}

	_, err := h.moves.ProcessMove(t.Context(), MoveInput{LeagueID: "missing", UserID: "user-a", AddPlayerID: "p-01"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown league, got %v", err)
	}
}
