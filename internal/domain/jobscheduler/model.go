package jobscheduler

import "time"

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

const (
	JobWaivers             = "waivers"
	JobReservationsCleanup = "reservations-cleanup"
)

// RunEvent records one execution of an internal maintenance job.
type RunEvent struct {
	RunID        string
	JobName      string
	LeagueID     string
	Status       RunStatus
	Payload      map[string]any
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
	TraceID      string
	SpanID       string
}
