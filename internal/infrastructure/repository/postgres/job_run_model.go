package postgres

import "time"

type jobRunInsertModel struct {
	RunID        string    `db:"run_id"`
	JobName      string    `db:"job_name"`
	LeagueID     *string   `db:"league_public_id"`
	Status       string    `db:"status"`
	Payload      string    `db:"payload"`
	ErrorMessage *string   `db:"error_message"`
	StartedAt    time.Time `db:"started_at"`
	FinishedAt   time.Time `db:"finished_at"`
	TraceID      *string   `db:"trace_id"`
	SpanID       *string   `db:"span_id"`
}
