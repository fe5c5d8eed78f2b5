package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-roster/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/fantasy-roster/internal/platform/querybuilder"
)

type JobRunRepository struct {
	db *sqlx.DB
}

func NewJobRunRepository(db *sqlx.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

func (r *JobRunRepository) RecordRun(ctx context.Context, event jobscheduler.RunEvent) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}

	finishedAt := event.FinishedAt.UTC()
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}
	startedAt := event.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = finishedAt
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job run payload: %w", err)
	}

	model := jobRunInsertModel{
		RunID:        runID,
		JobName:      jobName,
		LeagueID:     optionalString(event.LeagueID),
		Status:       string(event.Status),
		Payload:      payloadJSON,
		ErrorMessage: optionalString(event.ErrorMessage),
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		TraceID:      optionalString(event.TraceID),
		SpanID:       optionalString(event.SpanID),
	}
	if event.Status == jobscheduler.StatusCompleted {
		model.ErrorMessage = nil
	}

	query, args, err := qb.InsertModel("job_runs", model, "ON CONFLICT (run_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert job run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}

	return nil
}
