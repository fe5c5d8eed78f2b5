package ownership

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrTeamNotFound      = crerr.New("team not found")
	ErrNotOwned          = crerr.New("player is not owned by team")
	ErrAlreadyOwned      = crerr.New("player already owned")
	ErrRosterFull        = crerr.New("roster is full")
	ErrAlreadyDrafted    = crerr.New("player already drafted")
	ErrReservedByOther   = crerr.New("player reserved by another team")
	ErrPlayerUnavailable = crerr.New("player unavailable")
	ErrLockNotAcquired   = crerr.New("league lock not acquired")
)

// Reason is the stable, caller-facing code for a rejected attempt.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonTeamNotFound      Reason = "team_not_found"
	ReasonNotOwned          Reason = "not_owned"
	ReasonAlreadyOwned      Reason = "already_owned"
	ReasonRosterFull        Reason = "roster_full"
	ReasonAlreadyDrafted    Reason = "already_drafted"
	ReasonReservedByOther   Reason = "reserved_by_other"
	ReasonPlayerUnavailable Reason = "player_unavailable"
	ReasonLockNotAcquired   Reason = "lock_not_acquired"
	ReasonInternal          Reason = "internal"
)

var reasonByErr = []struct {
	err    error
	reason Reason
}{
	{ErrTeamNotFound, ReasonTeamNotFound},
	{ErrNotOwned, ReasonNotOwned},
	{ErrAlreadyOwned, ReasonAlreadyOwned},
	{ErrRosterFull, ReasonRosterFull},
	{ErrAlreadyDrafted, ReasonAlreadyDrafted},
	{ErrReservedByOther, ReasonReservedByOther},
	{ErrPlayerUnavailable, ReasonPlayerUnavailable},
	{ErrLockNotAcquired, ReasonLockNotAcquired},
}

// ReasonOf classifies err. Errors outside the taxonomy are ReasonInternal.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, item := range reasonByErr {
		if crerr.Is(err, item.err) {
			return item.reason
		}
	}
	return ReasonInternal
}

// IsRejection reports whether err is an expected domain rejection rather than an infrastructure fault.
func IsRejection(err error) bool {
	reason := ReasonOf(err)
	return reason != ReasonNone && reason != ReasonInternal
}

func (r Reason) Message() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonTeamNotFound:
		return "you do not have a team in this league"
	case ReasonNotOwned:
		return "that player is not on your roster"
	case ReasonAlreadyOwned:
		return "that player has already been claimed by another team"
	case ReasonRosterFull:
		return "your roster is full, drop a player first"
	case ReasonAlreadyDrafted:
		return "that player has already been drafted"
	case ReasonReservedByOther:
		return "another team is currently picking that player"
	case ReasonPlayerUnavailable:
		return "that player is no longer available"
	case ReasonLockNotAcquired:
		return "waivers are already being processed for this league"
	default:
		return "the request could not be completed, please retry"
	}
}
