package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
)

func TestMaintenanceService_RunWaivers_AllLeagues(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 2)
	h.submit(t, "team-a", "p-01", "")
	h.submit(t, "team-b", "p-02", "")

	// other-league is busy elsewhere and must be reported as skipped.
	unlock, err := h.locker.TryLock(t.Context(), waiver.LockKey("other-league"), time.Minute)
	if err != nil {
		t.Fatalf("take lock: %v", err)
	}
	defer unlock()

	result, err := h.maintenance.RunWaivers(t.Context(), nil)
	if err != nil {
		t.Fatalf("run waivers: %v", err)
	}
	if result.LeagueCount != 2 || result.CompletedCount != 1 || result.SkippedCount != 1 || result.FailedCount != 0 {
		t.Fatalf("unexpected run result %+v", result)
	}
	if result.Leagues[0].LeagueID != "other-league" || result.Leagues[0].Status != waiverRunStatusSkipped {
		t.Fatalf("expected other-league skipped, got %+v", result.Leagues[0])
	}
	if result.Leagues[1].LeagueID != testLeagueID || result.Leagues[1].Processed != 2 {
		t.Fatalf("expected both claims processed, got %+v", result.Leagues[1])
	}

	runs := h.runs.Runs()
	if len(runs) != 1 {
		t.Fatalf("expected one recorded run for the completed league, got %d", len(runs))
	}
	if runs[0].JobName != jobscheduler.JobWaivers || runs[0].Status != jobscheduler.StatusCompleted || runs[0].RunID == "" {
		t.Fatalf("unexpected job run %+v", runs[0])
	}
}

func TestMaintenanceService_RunWaivers_ExplicitLeagues(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)

	result, err := h.maintenance.RunWaivers(t.Context(), []string{" missing ", testLeagueID, testLeagueID})
	if err != nil {
		t.Fatalf("run waivers: %v", err)
	}
	if result.LeagueCount != 2 || result.FailedCount != 1 || result.CompletedCount != 1 {
		t.Fatalf("unexpected run result %+v", result)
	}

	var failed *jobscheduler.RunEvent
	for _, run := range h.runs.Runs() {
		if run.Status == jobscheduler.StatusFailed {
			failed = &run
		}
	}
	if failed == nil || failed.LeagueID != "missing" || failed.ErrorMessage == "" {
		t.Fatalf("expected a failed run for the unknown league, got %+v", h.runs.Runs())
	}
}

type failingSweeper struct{}

func (failingSweeper) CleanupExpiredReservations(context.Context) (int, error) {
	return 0, errors.New("connection reset")
}

func TestMaintenanceService_RunReservationCleanup(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 1)
	if _, err := h.drafts.Reserve(t.Context(), ReserveInput{LeagueID: testLeagueID, TeamID: "team-a", PlayerID: "p-01"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	h.clock.Advance(time.Minute)

	result, err := h.maintenance.RunReservationCleanup(t.Context())
	if err != nil {
		t.Fatalf("run cleanup: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("expected one expired reservation removed, got %d", result.Removed)
	}

	runs := h.runs.Runs()
	if len(runs) != 1 || runs[0].JobName != jobscheduler.JobReservationsCleanup || runs[0].Payload["removed"] != 1 {
		t.Fatalf("unexpected job run %+v", runs)
	}

	failing := NewMaintenanceService(h.leagueRepo, h.waivers, failingSweeper{}, nil, nil, 0, nil)
	if _, err := failing.RunReservationCleanup(t.Context()); err == nil {
		t.Fatalf("expected sweeper error to surface")
	}
}
