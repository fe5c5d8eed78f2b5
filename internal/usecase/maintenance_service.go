package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-roster/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	idgen "github.com/riskibarqy/fantasy-roster/internal/platform/id"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultWaiverWorkers = 4

	waiverRunStatusCompleted = "completed"
	waiverRunStatusFailed    = "failed"
	waiverRunStatusSkipped   = "skipped"
)

type waiverProcessor interface {
	ProcessWaivers(ctx context.Context, leagueID string) (WaiverBatchResult, error)
}

type reservationSweeper interface {
	CleanupExpiredReservations(ctx context.Context) (int, error)
}

type WaiverRunResult struct {
	LeagueCount    int                     `json:"league_count"`
	CompletedCount int                     `json:"completed_count"`
	FailedCount    int                     `json:"failed_count"`
	SkippedCount   int                     `json:"skipped_count"`
	WorkerCount    int                     `json:"worker_count"`
	Leagues        []WaiverLeagueRunResult `json:"leagues"`
}

type WaiverLeagueRunResult struct {
	LeagueID   string `json:"league_id"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type CleanupResult struct {
	Removed int `json:"removed"`
}

// MaintenanceService runs the scheduled jobs: waiver batches across leagues and the reservation sweep.
type MaintenanceService struct {
	leagueRepo league.Repository
	waivers    waiverProcessor
	sweeper    reservationSweeper
	runRepo    jobscheduler.Repository
	idGen      idgen.Generator
	workers    int
	logger     *logging.Logger
	now        func() time.Time
}

func NewMaintenanceService(
	leagueRepo league.Repository,
	waivers waiverProcessor,
	sweeper reservationSweeper,
	runRepo jobscheduler.Repository,
	idGen idgen.Generator,
	workers int,
	logger *logging.Logger,
) *MaintenanceService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultWaiverWorkers
	}

	return &MaintenanceService{
		leagueRepo: leagueRepo,
		waivers:    waivers,
		sweeper:    sweeper,
		runRepo:    runRepo,
		idGen:      idGen,
		workers:    workers,
		logger:     logger,
		now:        time.Now,
	}
}

// RunWaivers processes the given leagues, or every league when none are given, on a bounded pool.
// A league whose batch is already running elsewhere is reported as skipped.
func (s *MaintenanceService) RunWaivers(ctx context.Context, leagueIDs []string) (WaiverRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MaintenanceService.RunWaivers")
	defer span.End()

	targets, err := s.resolveLeagues(ctx, leagueIDs)
	if err != nil {
		return WaiverRunResult{}, err
	}

	workerCount := min(s.workers, len(targets))
	result := WaiverRunResult{
		LeagueCount: len(targets),
		WorkerCount: workerCount,
		Leagues:     make([]WaiverLeagueRunResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	results := make(chan WaiverLeagueRunResult, len(targets))

	var completedCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return WaiverRunResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, leagueID := range targets {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := s.runLeagueWaivers(ctx, leagueID)
			switch row.Status {
			case waiverRunStatusCompleted:
				completedCount.Add(1)
			case waiverRunStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return WaiverRunResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Leagues = append(result.Leagues, row)
	}
	sort.SliceStable(result.Leagues, func(i, j int) bool {
		return result.Leagues[i].LeagueID < result.Leagues[j].LeagueID
	})

	result.CompletedCount = int(completedCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func (s *MaintenanceService) runLeagueWaivers(ctx context.Context, leagueID string) WaiverLeagueRunResult {
	started := s.now().UTC()
	row := WaiverLeagueRunResult{LeagueID: leagueID}

	batch, err := s.waivers.ProcessWaivers(ctx, leagueID)
	row.DurationMs = s.now().UTC().Sub(started).Milliseconds()
	switch {
	case errors.Is(err, ownership.ErrLockNotAcquired):
		row.Status = waiverRunStatusSkipped
		row.Message = "waiver batch already running"
		return row
	case err != nil:
		row.Status = waiverRunStatusFailed
		row.Message = err.Error()
	default:
		row.Status = waiverRunStatusCompleted
		row.Processed, row.Failed = batch.Counts()
	}

	event := jobscheduler.RunEvent{
		JobName:   jobscheduler.JobWaivers,
		LeagueID:  leagueID,
		Status:    jobscheduler.StatusCompleted,
		StartedAt: started,
		Payload: map[string]any{
			"processed": row.Processed,
			"failed":    row.Failed,
		},
	}
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
	}
	s.recordRun(ctx, event)

	return row
}

// RunReservationCleanup sweeps expired draft reservations.
func (s *MaintenanceService) RunReservationCleanup(ctx context.Context) (CleanupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MaintenanceService.RunReservationCleanup")
	defer span.End()

	started := s.now().UTC()
	removed, err := s.sweeper.CleanupExpiredReservations(ctx)

	event := jobscheduler.RunEvent{
		JobName:   jobscheduler.JobReservationsCleanup,
		Status:    jobscheduler.StatusCompleted,
		StartedAt: started,
		Payload:   map[string]any{"removed": removed},
	}
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
	}
	s.recordRun(ctx, event)

	if err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup expired reservations: %w", err)
	}
	return CleanupResult{Removed: removed}, nil
}

func (s *MaintenanceService) resolveLeagues(ctx context.Context, leagueIDs []string) ([]string, error) {
	requested := make([]string, 0, len(leagueIDs))
	seen := make(map[string]struct{}, len(leagueIDs))
	for _, id := range leagueIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		requested = append(requested, id)
	}
	if len(requested) > 0 {
		sort.Strings(requested)
		return requested, nil
	}

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	out := make([]string, 0, len(leagues))
	for _, item := range leagues {
		out = append(out, item.ID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MaintenanceService) recordRun(ctx context.Context, event jobscheduler.RunEvent) {
	if s.runRepo == nil {
		return
	}
	runID, err := s.idGen.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "generate job run id failed", "job", event.JobName, "error", err)
		return
	}
	event.RunID = runID
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	event.FinishedAt = s.now().UTC()

	if err := s.runRepo.RecordRun(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job run failed",
			"run_id", event.RunID,
			"job", event.JobName,
			"league_id", event.LeagueID,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
