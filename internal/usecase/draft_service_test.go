package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
)

func TestDraftService_ReserveExpiryBoundary(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)
	start := h.clock.Now()

	first, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-01"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !first.Success || !first.ExpiresAt.Equal(start.Add(30*time.Second)) {
		t.Fatalf("unexpected reserve result %+v", first)
	}

	h.clock.Set(start.Add(30*time.Second - time.Nanosecond))
	blocked, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-01"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if blocked.Success || blocked.Reason != ownership.ReasonReservedByOther {
		t.Fatalf("expected reserved_by_other just before expiry, got %+v", blocked)
	}

	h.clock.Set(start.Add(30 * time.Second))
	taken, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-01"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !taken.Success {
		t.Fatalf("expected reservation to be free at expiry, got %+v", taken)
	}

	failures := h.failures(t)
	if len(failures) != 1 || failures[0].Reason != ownership.ReasonReservedByOther || failures[0].Source != ownership.SourceDraft {
		t.Fatalf("expected one draft failure entry, got %+v", failures)
	}
	if got := len(h.ledger(t)); got != 0 {
		t.Fatalf("reservations must not write ledger entries, got %d", got)
	}
}

func TestDraftService_ReserveRefreshBySameTeam(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	start := h.clock.Now()

	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-02"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	h.clock.Advance(10 * time.Second)

	refreshed, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-02"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !refreshed.Success || !refreshed.ExpiresAt.Equal(start.Add(40*time.Second)) {
		t.Fatalf("expected refreshed expiry, got %+v", refreshed)
	}
}

func TestDraftService_ConfirmFlow(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)

	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-03"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	stolen, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-03", Round: 1, PickNumber: 2})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if stolen.Success || stolen.Reason != ownership.ReasonReservedByOther {
		t.Fatalf("expected reserved_by_other, got %+v", stolen)
	}

	confirmed, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-03", Round: 1, PickNumber: 1})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.Success || confirmed.LedgerEntryID == "" {
		t.Fatalf("expected confirm to succeed, got %+v", confirmed)
	}

	record, ok, err := h.store.GetOwner(t.Context(), testLeagueID, "p-03")
	if err != nil || !ok {
		t.Fatalf("expected ownership record, ok=%v err=%v", ok, err)
	}
	if record.Acquisition != ownership.AcquisitionDraft || record.DraftRound == nil || *record.DraftRound != 1 || record.DraftPick == nil || *record.DraftPick != 1 {
		t.Fatalf("unexpected draft record %+v", record)
	}

	again, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-03", Round: 1, PickNumber: 2})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if again.Success || again.Reason != ownership.ReasonAlreadyDrafted {
		t.Fatalf("expected already_drafted, got %+v", again)
	}

	reserveOwned, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-03"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reserveOwned.Success || reserveOwned.Reason != ownership.ReasonAlreadyDrafted {
		t.Fatalf("expected already_drafted on reserve, got %+v", reserveOwned)
	}

	ledger := h.ledger(t)
	if len(ledger) != 1 || ledger[0].Action != ownership.ActionDraft {
		t.Fatalf("expected one draft ledger entry, got %+v", ledger)
	}
	if got := len(h.failures(t)); got != 3 {
		t.Fatalf("expected 3 failure entries, got %d", got)
	}

	// The reservation went away with the confirm, so nothing is left to sweep.
	removed, err := h.drafts.CleanupExpiredReservations(t.Context())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no reservations left, removed=%d", removed)
	}
}

func TestDraftService_ConfirmWithoutReservationAndRosterLimit(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	for i := 1; i <= testRosterLimit; i++ {
		result, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: testPlayerID(i), Round: i, PickNumber: i})
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if !result.Success {
			t.Fatalf("expected confirm without reservation to succeed, got %+v", result)
		}
	}

	full, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-10", Round: 4, PickNumber: 4})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if full.Success || full.Reason != ownership.ReasonRosterFull {
		t.Fatalf("expected roster_full, got %+v", full)
	}
}

func TestDraftService_CleanupExpiredReservationsBoundary(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)
	start := h.clock.Now()

	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-01"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	h.clock.Set(start.Add(time.Nanosecond))
	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-02"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	h.clock.Set(start.Add(30 * time.Second))
	removed, err := h.drafts.CleanupExpiredReservations(t.Context())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the reservation expiring at now to be removed, removed=%d", removed)
	}

	stillHeld, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-02"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if stillHeld.Success || stillHeld.Reason != ownership.ReasonReservedByOther {
		t.Fatalf("future reservation must survive the sweep, got %+v", stillHeld)
	}
}

func TestDraftService_Release(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)

	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-05"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	foreign, err := h.drafts.Release(t.Context(), ReleaseInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-05"})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !foreign.NoOp {
		t.Fatalf("releasing another team's hold must not remove it")
	}

	released, err := h.drafts.Release(t.Context(), ReleaseInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-05"})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !released.Success || released.NoOp {
		t.Fatalf("expected release to remove the hold, got %+v", released)
	}

	taken, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-b", PlayerID: "p-05"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !taken.Success {
		t.Fatalf("expected reservation after release, got %+v", taken)
	}
}

func TestDraftService_Rejections(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)

	unknownTeam, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-zz", PlayerID: "p-01"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if unknownTeam.Reason != ownership.ReasonTeamNotFound {
		t.Fatalf("expected team_not_found, got %+v", unknownTeam)
	}

	inactive, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-retired"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if inactive.Reason != ownership.ReasonPlayerUnavailable {
		t.Fatalf("expected player_unavailable, got %+v", inactive)
	}

	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.drafts.Confirm(t.Context(), ConfirmInput{LeagueID: "missing", TeamID: "team-a", PlayerID: "p-01"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
