package draft

import "time"

// DefaultReservationTTL is the hold duration when none is configured.
const DefaultReservationTTL = 30 * time.Second

// Reservation is a short-lived hold on a player during a live pick window.
type Reservation struct {
	LeagueID   string
	PlayerID   string
	TeamID     string
	ReservedAt time.Time
	ExpiresAt  time.Time
}

// Live reports whether the reservation still blocks other teams at now.
// A reservation is live strictly before ExpiresAt.
func (r Reservation) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// Expired is the complement of Live: ExpiresAt <= now.
func (r Reservation) Expired(now time.Time) bool {
	return !r.Live(now)
}

// HeldByOther reports whether a live reservation belongs to a team other than teamID.
func (r Reservation) HeldByOther(teamID string, now time.Time) bool {
	return r.TeamID != teamID && r.Live(now)
}

// Pick carries the draft slot metadata stored on the ownership record.
type Pick struct {
	Round      int
	PickNumber int
}
