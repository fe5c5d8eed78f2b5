package lineup

import "time"

// Slot is the lineup position a team assigned to one of its players.
// Slot legality is decided elsewhere; this core only clears slots when a player leaves a roster.
type Slot struct {
	LeagueID  string
	TeamID    string
	PlayerID  string
	Slot      string
	UpdatedAt time.Time
}
