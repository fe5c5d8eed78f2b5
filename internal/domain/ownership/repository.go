package ownership

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/draft"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
)

// Reader serves read-only ownership queries outside a transactional unit.
type Reader interface {
	GetOwner(ctx context.Context, leagueID, playerID string) (Record, bool, error)
	ListRoster(ctx context.Context, leagueID, teamID string) ([]RosterEntry, error)
	ListOwnedPlayerIDs(ctx context.Context, leagueID string) ([]string, error)
	ListLedger(ctx context.Context, leagueID string, limit int) ([]LedgerEntry, error)
	ListFailures(ctx context.Context, leagueID string, limit int) ([]FailedEntry, error)
}

// Transactor runs fn as one all-or-nothing unit. Returning an error from fn rolls the unit back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of mutations and locked reads available inside a unit.
type Tx interface {
	// LockTeam serialises units that change one team's roster.
	LockTeam(ctx context.Context, leagueID, teamID string) error
	// LockKey blocks until the unit holds key.
	LockKey(ctx context.Context, key string) error
	// TryLockKey returns false without waiting when key is held by another unit.
	TryLockKey(ctx context.Context, key string) (bool, error)

	GetOwner(ctx context.Context, leagueID, playerID string) (Record, bool, error)
	CountRoster(ctx context.Context, leagueID, teamID string) (int, error)
	// InsertRecord returns ErrAlreadyOwned when the (league, player) uniqueness constraint rejects the row.
	InsertRecord(ctx context.Context, record Record) error
	// DeleteRecord removes the record only if teamID owns it.
	DeleteRecord(ctx context.Context, leagueID, teamID, playerID string) (bool, error)
	ClearLineupSlot(ctx context.Context, leagueID, teamID, playerID string) error

	AppendLedger(ctx context.Context, entry LedgerEntry) error
	AppendFailure(ctx context.Context, entry FailedEntry) error

	GetReservation(ctx context.Context, leagueID, playerID string) (draft.Reservation, bool, error)
	// PutReservation inserts r, or refreshes an existing row that belongs to r.TeamID or expired at or before now.
	// It returns false when another team holds a live reservation.
	PutReservation(ctx context.Context, r draft.Reservation, now time.Time) (bool, error)
	DeleteReservation(ctx context.Context, leagueID, playerID, teamID string) (bool, error)
	DeleteExpiredReservations(ctx context.Context, now time.Time) (int, error)

	InsertClaim(ctx context.Context, claim waiver.Claim) error
	// ListDueClaims locks pending claims with process_at <= now, skipping rows locked elsewhere.
	ListDueClaims(ctx context.Context, leagueID string, now time.Time, limit int) ([]waiver.Claim, error)
	MarkClaim(ctx context.Context, claimID string, status waiver.Status, failureReason string, processedAt time.Time) error
	ListPriorities(ctx context.Context, leagueID string) ([]waiver.Priority, error)
	// EnsurePriority appends teamID to the back of the order if it has no priority yet and returns its priority.
	EnsurePriority(ctx context.Context, leagueID, teamID string) (int, error)
	MoveToBack(ctx context.Context, leagueID, teamID string) (int, error)

	// Nested runs fn inside a savepoint; an error from fn rolls back only the savepoint.
	Nested(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier publishes committed ownership changes so downstream caches can invalidate.
type Notifier interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, ChangeEvent) error {
	return nil
}

// PriorityLockKey guards the waiver order of a league.
func PriorityLockKey(leagueID string) string {
	return "waiver-priority:" + leagueID
}
