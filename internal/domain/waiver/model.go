package waiver

import (
	"context"
	"time"
)

// DefaultBatchSize caps the claims handled by one batch when the league does not configure it.
const DefaultBatchSize = 50

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Claim is a team's queued request to acquire a player.
type Claim struct {
	ID               string
	LeagueID         string
	TeamID           string
	PlayerID         string
	DroppedPlayerID  string
	Status           Status
	PrioritySnapshot int
	ProcessAt        time.Time
	CreatedAt        time.Time
	ProcessedAt      *time.Time
	FailureReason    string
}

// Due reports whether the claim may be processed at now. The boundary is inclusive.
func (c Claim) Due(now time.Time) bool {
	return c.Status == StatusPending && !c.ProcessAt.After(now)
}

// Priority is a team's position in the league waiver order. Lower goes first.
type Priority struct {
	LeagueID string
	TeamID   string
	Priority int
}

// Outcome is the per-claim result of a batch run.
type Outcome struct {
	ClaimID       string
	TeamID        string
	PlayerID      string
	Status        Status
	FailureReason string
}

// Locker grants per-league exclusive execution across service instances.
type Locker interface {
	// TryLock returns an unlock func, or ownership.ErrLockNotAcquired when another holder has the key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// LockKey derives the per-league lock key.
func LockKey(leagueID string) string {
	return "waiver:" + leagueID
}
